// Command seed bootstraps the first admin account. The last-admin invariant
// needs a base case: a fresh database has no admin to promote anyone, so this
// tool creates one directly, then records the promotion in the audit trail.
// The whole bootstrap runs in a single transaction: either the account, its
// admin role, and the audit record all land, or none of them do.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"atrium/internal/account/models"
	"atrium/internal/account/store"
	"atrium/internal/audit"
	"atrium/internal/platform/logger"
	"atrium/internal/platform/postgres"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
	txcontext "atrium/pkg/platform/tx"
)

func main() {
	var (
		email       = flag.String("email", "", "email of the bootstrap admin (required)")
		displayName = flag.String("name", "Administrator", "display name of the bootstrap admin")
	)
	flag.Parse()

	log := logger.New(os.Getenv("ATRIUM_LOG_LEVEL"))

	if err := run(context.Background(), log, *email, *displayName); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, email, displayName string) error {
	if email == "" {
		return errors.New("-email is required")
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		return errors.New("SEED_ADMIN_PASSWORD must be set")
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}

	db, err := postgres.Open(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, postgres.Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	accounts := store.NewPostgres(db)
	auditor := audit.NewPublisher(audit.NewPostgresStore(db), log)

	admins, err := accounts.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		log.Info("admin already present, nothing to do", "admins", admins)
		return nil
	}

	now := time.Now().UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bootstrap: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	txCtx := txcontext.WithTx(ctx, tx)

	// Find-first rather than create-and-catch-conflict: a failed INSERT
	// would abort the surrounding transaction. A lost race on the unique
	// email between find and create simply fails the commit.
	account, err := accounts.FindByEmail(txCtx, email)
	switch {
	case err == nil:
		// The account exists but no admin does; promote it instead.
	case errors.Is(err, sentinel.ErrNotFound):
		account, err = models.NewAccount(id.NewUserID(), email, displayName, now)
		if err != nil {
			return err
		}
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return fmt.Errorf("hash password: %w", hashErr)
		}
		account.PasswordHash = string(hash)
		if err := accounts.Create(txCtx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
	default:
		return fmt.Errorf("find existing account: %w", err)
	}

	previousRole := account.Role
	promoted, err := accounts.ExecuteRoleChange(txCtx, account.ID,
		func(target *models.Account, adminCount int) error {
			if adminCount > 0 {
				return errors.New("an admin appeared concurrently, aborting bootstrap")
			}
			return nil
		},
		func(target *models.Account) {
			target.ApplyRoleChange(models.RoleAdmin, now)
		},
	)
	if err != nil {
		return fmt.Errorf("promote bootstrap admin: %w", err)
	}

	if err := auditor.Emit(txCtx, audit.Event{
		ActorID:  promoted.ID,
		TargetID: promoted.ID,
		Action:   audit.ActionRoleChange,
		Details: map[string]string{
			audit.DetailPreviousRole: string(previousRole),
			audit.DetailNewRole:      string(models.RoleAdmin),
		},
	}); err != nil {
		return fmt.Errorf("record bootstrap promotion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}

	log.Info("bootstrap admin ready",
		"id", promoted.ID.String(),
		"email", promoted.Email,
	)
	return nil
}
