// Command create-admin bootstraps the first super admin account. It connects
// directly to the database, runs pending migrations, and inserts the account
// with a bcrypt-hashed password. Intended for initial deployment and for
// recovering access when every admin account is locked out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/enrollhq/leadpulse/internal/auth"
	"github.com/enrollhq/leadpulse/internal/database"
	"github.com/enrollhq/leadpulse/internal/domain"
)

func main() {
	var (
		dbURL    = flag.String("db", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		email    = flag.String("email", "", "Admin email address")
		name     = flag.String("name", "", "Admin display name")
		password = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password (or set ADMIN_PASSWORD env)")
	)
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("Database URL required (--db or DATABASE_URL env)")
	}
	if *email == "" || *name == "" {
		log.Fatal("--email and --name are required")
	}
	if len(*password) < auth.MinPasswordLength {
		log.Fatalf("Password must be at least %d characters", auth.MinPasswordLength)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin, err := database.NewAdminRepo(pool).Create(ctx, &domain.Admin{
		Email:        *email,
		Name:         *name,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		Permissions:  []string{},
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		log.Fatalf("An admin with email %s already exists", *email)
	}
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Created super admin %s (id %d)\n", admin.Email, admin.ID)
}
