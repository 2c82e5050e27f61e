// Command createadmin provisions an account with the admin role so the panel
// has someone to log in as.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/diagnosis/hallbooking-admin/pkg/config"
	"github.com/diagnosis/hallbooking-admin/pkg/database"
	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/identity"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/repository"
)

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "initial password")
	name := flag.String("name", "", "display name")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	provider := identity.NewProvider(repository.NewAccountRepository(pool))
	profiles := repository.NewProfileRepository(pool)

	acct, err := provider.Register(ctx, *email, *password, *name)
	if err != nil {
		logger.Error("Failed to create account", "email", *email, "error", err)
		os.Exit(1)
	}
	if err := profiles.SetRole(ctx, acct.ID, domain.RoleAdmin); err != nil {
		logger.Error("Failed to grant admin role", "user_id", acct.ID, "error", err)
		os.Exit(1)
	}
	if *name != "" {
		if _, err := profiles.Upsert(ctx, acct.ID, domain.ProfilePatch{DisplayName: name}); err != nil {
			logger.Warn("Account created but display name not saved", "user_id", acct.ID, "error", err)
		}
	}

	logger.Info("Admin account created", "user_id", acct.ID, "email", acct.Email)
}
