package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/accounts"
	"github.com/dkellner/modelstore/internal/config"
	"github.com/dkellner/modelstore/internal/postgres"
)

func main() {
	_ = godotenv.Load()

	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := addUserCmd.String("email", "", "Email for the new user")
	name := addUserCmd.String("name", "", "Display name")
	password := addUserCmd.String("password", "", "Password for the new user")
	role := addUserCmd.String("role", accounts.RoleCustomer, "Role: customer or admin")

	if len(os.Args) < 2 {
		fmt.Println("expected 'add-user' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-user":
		_ = addUserCmd.Parse(os.Args[2:])
		if *email == "" || *password == "" {
			fmt.Println("email and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		if *role != accounts.RoleCustomer && *role != accounts.RoleAdmin {
			fmt.Println("role must be customer or admin")
			os.Exit(1)
		}
		createUser(*email, *name, *password, *role)
	default:
		fmt.Println("expected 'add-user' subcommand")
		os.Exit(1)
	}
}

func createUser(email, name, password, role string) {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("db migrate")
	}

	repo := &accounts.Repo{DB: db}
	u, err := repo.Create(ctx, email, name, password, role)
	if err != nil {
		log.WithError(err).Fatal("create user")
	}
	fmt.Printf("user %q created with role %s\n", u.Email, u.Role)
}
