package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/notekeeper/notekeeper/internal/flagx"
)

// Environment variable names.
const (
	envMode           = "NOTEKEEPER_MODE"
	envLogLevel       = "LOG_LEVEL"
	envHTTPAddr       = "HTTP_ADDR"
	envDatabaseURL    = "DATABASE_URL"
	envSessionSecret  = "SESSION_SECRET"
	envCSRFSecret     = "CSRF_SECRET"
	envHoneypotSecret = "HONEYPOT_SECRET"
	envVerifySecret   = "VERIFY_SECRET"
	envSessionTTL     = "SESSION_TTL"
	envBcryptCost     = "BCRYPT_COST"
	envReaperSchedule = "SESSION_REAPER_SCHEDULE"
)

// loadDotEnv loads a .env file into the process environment. Variables
// already set in the environment win. A missing file is not an error;
// the path comes from -env or defaults to ".env".
func loadDotEnv() {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return
		}
		panic(err)
	}
}

// parseEnv overlays Config with environment variables.
// SESSION_SECRET accepts a comma-separated list, newest key first.
func parseEnv(config *Config) {
	loadDotEnv()

	if v, ok := os.LookupEnv(envMode); ok {
		config.Mode = v
	}
	if v, ok := os.LookupEnv(envLogLevel); ok {
		config.LogLevel = v
	}
	if v, ok := os.LookupEnv(envHTTPAddr); ok {
		config.HTTPAddr = v
	}
	if v, ok := os.LookupEnv(envDatabaseURL); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(envSessionSecret); ok {
		config.SessionSecrets = splitSecrets(v)
	}
	if v, ok := os.LookupEnv(envCSRFSecret); ok {
		config.CSRFSecret = v
	}
	if v, ok := os.LookupEnv(envHoneypotSecret); ok {
		config.HoneypotSecret = v
	}
	if v, ok := os.LookupEnv(envVerifySecret); ok {
		config.VerifySecret = v
	}
	if v, ok := os.LookupEnv(envSessionTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.SessionTTL = d
	}
	if v, ok := os.LookupEnv(envBcryptCost); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.BcryptCost = n
	}
	if v, ok := os.LookupEnv(envReaperSchedule); ok {
		config.ReaperSchedule = v
	}
}
