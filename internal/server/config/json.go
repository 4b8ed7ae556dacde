package config

import (
	"encoding/json"
	"os"

	"github.com/notekeeper/notekeeper/internal/flagx"
	"github.com/notekeeper/notekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON configuration file.
// Durations accept "720h" style strings or integer nanoseconds. Fields left
// out of the file keep the value they had before the overlay.
type JsonConfig struct {
	Mode             *string         `json:"mode"`
	LogLevel         *string         `json:"log_level"`
	HTTPAddr         *string         `json:"http_addr"`
	DatabaseDSN      *string         `json:"database_dsn"`
	SessionSecrets   []string        `json:"session_secrets"`
	CSRFSecret       *string         `json:"csrf_secret"`
	HoneypotSecret   *string         `json:"honeypot_secret"`
	VerifySecret     *string         `json:"verify_secret"`
	SessionTTL       *timex.Duration `json:"session_ttl"`
	VerifyTTL        *timex.Duration `json:"verify_ttl"`
	HoneypotMinDelay *timex.Duration `json:"honeypot_min_delay"`
	BcryptCost       *int            `json:"bcrypt_cost"`
	HashConcurrency  *int            `json:"hash_concurrency"`
	SecureCookies    *bool           `json:"secure_cookies"`
	ReaperSchedule   *string         `json:"reaper_schedule"`
}

// parseJson loads the file named by -c/-config, if any, and overlays it on
// config. An unreadable or malformed file panics: a server that silently
// ignored its config file would run with development secrets.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.Mode, c.Mode)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if len(c.SessionSecrets) > 0 {
		config.SessionSecrets = c.SessionSecrets
	}
	setString(&config.CSRFSecret, c.CSRFSecret)
	setString(&config.HoneypotSecret, c.HoneypotSecret)
	setString(&config.VerifySecret, c.VerifySecret)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.VerifyTTL != nil {
		config.VerifyTTL = c.VerifyTTL.Duration
	}
	if c.HoneypotMinDelay != nil {
		config.HoneypotMinDelay = c.HoneypotMinDelay.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.HashConcurrency != nil {
		config.HashConcurrency = *c.HashConcurrency
	}
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	setString(&config.ReaperSchedule, c.ReaperSchedule)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
