package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/notekeeper/notekeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   session secrets, comma-separated, newest first
//	-t int      session lifetime, hours
//	-k int      bcrypt cost
//	-m string   mode: development, production or test
//	-l string   log level
//
// os.Args is filtered through flagx.FilterArgs first so -c and -env, which
// are handled elsewhere, do not fail the parse.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-k", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	secrets := fs.String("s", strings.Join(config.SessionSecrets, ","), "session secrets (comma-separated)")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Hours()), "session_ttl (in hours)")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.Mode, "m", config.Mode, "run mode")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionSecrets = splitSecrets(*secrets)
	config.SessionTTL = time.Duration(*sessionTTL) * time.Hour
}
