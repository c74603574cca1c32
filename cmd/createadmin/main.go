// Command createadmin creates the first super-admin, or promotes an existing
// account, from ADMIN_EMAIL and ADMIN_PASSWORD.
package main

import (
	"context"
	"log"
	"time"

	"github.com/Skotchmaster/boutique/internal/account"
	"github.com/Skotchmaster/boutique/internal/models"
	"github.com/Skotchmaster/boutique/pkg/config"
	pkgdb "github.com/Skotchmaster/boutique/pkg/db"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(cfg.AdminEmail, "ADMIN_EMAIL")
	config.MustNonEmpty(cfg.AdminPassword, "ADMIN_PASSWORD")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer pkgdb.Close(db)

	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	svc := &account.AccountService{Repo: &account.GormRepo{DB: db}}
	u, created, err := svc.EnsureSuperAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	if created {
		log.Printf("super-admin %s created", u.Email)
		return
	}
	log.Printf("user %s promoted to super-admin", u.Email)
}
