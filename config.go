// Package quartermaster config loading.
// LoadConfig reads a YAML file plus environment overrides into a Config,
// grounded on the flyingrobots-go-redis-work-queue internal/config
// package's Load(path): viper.New, defaults seeded from DefaultConfig(),
// optional file read, env override via AutomaticEnv.
package quartermaster

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads path (YAML) and QUARTERMASTER_-prefixed environment
// variables into a Config, falling back to DefaultConfig() for anything
// neither source sets. path may not exist — a missing file is not an
// error, matching the teacher-adjacent Load's optional-file-read step.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("quartermaster")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("server", def.Server)
	v.SetDefault("port", def.Port)
	// queue_name and password have empty defaults; registering them lets
	// AutomaticEnv surface QUARTERMASTER_QUEUE_NAME/QUARTERMASTER_PASSWORD
	// through Unmarshal.
	v.SetDefault("queue_name", def.QueueName)
	v.SetDefault("password", def.Password)
	v.SetDefault("db", def.DB)
	v.SetDefault("busy_expiry_time", def.BusyExpiryTime)
	v.SetDefault("claim_wait_timeout", def.ClaimWaitTimeout)
	v.SetDefault("requeue_limit", def.RequeueLimit)
	v.SetDefault("warn_on_requeue", def.WarnOnRequeue)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("quartermaster: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("quartermaster: unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
