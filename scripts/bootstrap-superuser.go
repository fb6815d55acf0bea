// Command bootstrap-superuser provisions a superuser account and prints
// its bearer token. Intended for initial setup and CI environments.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/forkful/forkful/internal/metrics"
	"github.com/forkful/forkful/internal/repository"
	"github.com/forkful/forkful/internal/service"
)

type output struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "admin@forkful.local", "Superuser email")
		password    = flag.String("password", "", "Superuser password (required)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	svc := service.NewUserService(repo, nil, metrics.NewNoop())

	user, err := svc.CreateSuperuser(ctx, *email, *password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			fmt.Fprintln(os.Stderr, "a user with that email already exists")
		} else {
			fmt.Fprintln(os.Stderr, "create superuser:", err)
		}
		os.Exit(1)
	}

	token, err := svc.IssueToken(ctx, user.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue token:", err)
		os.Exit(1)
	}

	out := output{
		UserID: user.ID,
		Email:  user.Email,
		Token:  token.Key,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Token)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}
