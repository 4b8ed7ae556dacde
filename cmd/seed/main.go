// Command seed creates an administrator account. The password is read from
// the terminal unless -p is given.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/flagx"
	"github.com/notekeeper/notekeeper/internal/logging"
	"github.com/notekeeper/notekeeper/internal/server/auth"
	"github.com/notekeeper/notekeeper/internal/server/config"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repomanager"
	"github.com/notekeeper/notekeeper/internal/server/services"
	"golang.org/x/term"
)

func main() {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-e", "-n", "-p"})

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	username := fs.String("u", "admin", "admin username")
	email := fs.String("e", "admin@example.com", "admin email")
	name := fs.String("n", "Administrator", "admin display name")
	password := fs.String("p", "", "admin password (prompted when empty)")
	_ = fs.Parse(args)

	if *password == "" {
		fmt.Fprint(os.Stdout, "Enter password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stdout)
		if err != nil {
			log.Fatalf("read password: %v", err)
		}
		*password = string(pw)
		common.WipeByteArray(pw)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := &repomanager.PostgresRepositoryManager{}
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost, 1)
	if err != nil {
		log.Fatalf("%v", err)
	}
	verify := auth.NewVerifyTokens([]byte(cfg.VerifySecret), cfg.VerifyTTL, nil)
	sessions := services.NewSessionManager(db, rm, cfg, nil)
	svc := services.NewAuthService(db, rm, hasher, verify, sessions, logger)

	user, err := svc.CreateAdmin(ctx, services.SignupInput{
		Username: *username,
		Email:    *email,
		Name:     *name,
		Password: *password,
	})
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	fmt.Fprintf(os.Stdout, "admin %q created with id %s\n", user.Username, user.ID)
}
