// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "VILLAGE"
	defaultDataDir         = "village.db"
	defaultLogLevel        = "info"
	defaultScanInterval    = 10 * time.Minute
	defaultUpcomingHorizon = 24 * time.Hour
	defaultSessionName     = "village-session"
)

// AppConfig holds the runtime configuration of the host process.
//
// Values come from environment variables (VILLAGE_*), a configuration file,
// or command-line flags, in the usual viper precedence order.
type AppConfig struct {
	DataDir         string        // document store directory
	LogLevel        string        // debug | info | warn | error
	ScanInterval    time.Duration // how often the pin expiry worker runs
	UpcomingHorizon time.Duration // upper bound for "upcoming pins" queries
	SessionKey      string        // secret for signing session cookies
	SessionName     string        // session cookie name
}

// NewViper returns a viper instance with defaults and env bindings applied.
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults configures defaults and env bindings on v.
func ApplyDefaults(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.data_dir", defaultDataDir)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("expiry.interval", defaultScanInterval)
	v.SetDefault("pins.upcoming_horizon", defaultUpcomingHorizon)
	v.SetDefault("session.name", defaultSessionName)
}

// Load parses runtime configuration from v.
func Load(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		DataDir:         v.GetString("store.data_dir"),
		LogLevel:        v.GetString("log.level"),
		ScanInterval:    v.GetDuration("expiry.interval"),
		UpcomingHorizon: v.GetDuration("pins.upcoming_horizon"),
		SessionKey:      v.GetString("session.key"),
		SessionName:     v.GetString("session.name"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("store.data_dir is required")
	}
	if strings.TrimSpace(c.SessionKey) == "" {
		return fmt.Errorf("session.key is required")
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("expiry.interval must be positive")
	}
	if c.UpcomingHorizon <= 0 {
		return fmt.Errorf("pins.upcoming_horizon must be positive")
	}
	return nil
}
