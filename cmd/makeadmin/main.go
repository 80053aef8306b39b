// Command makeadmin grants the admin role to an existing user. Role
// changes never go through the public API; this is the out-of-band
// escalation path. The new role only reaches the user's requests once
// they log in again, because role rides inside the token.
//
//	JWT_SECRET=x MONGO_URI=... makeadmin -email user@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
	"github.com/floodwatch/flood-report-api/internal/infrastructure/config"
	mongodb "github.com/floodwatch/flood-report-api/internal/infrastructure/db/mongo"
)

func main() {
	email := flag.String("email", "", "email of the user to promote")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: makeadmin -email <address>")
		os.Exit(1)
	}

	if err := run(*email); err != nil {
		fmt.Fprintln(os.Stderr, "makeadmin:", err)
		os.Exit(1)
	}
}

func run(email string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	repo := mongodb.NewUserRepository(db)
	user, err := repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	if user.Role == domain.RoleAdmin {
		fmt.Printf("%s is already an admin\n", email)
		return nil
	}

	user.Role = domain.RoleAdmin
	if err := repo.Save(ctx, user); err != nil {
		return err
	}

	fmt.Printf("%s has been granted admin privileges\n", email)
	return nil
}
