package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"atrium/internal/account/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
	txcontext "atrium/pkg/platform/tx"
)

// roleChangeLockKey is the advisory lock key serializing all role mutations.
// A single key is enough: role changes are rare, and a global ordering makes
// the admin count read trivially consistent with the update.
const roleChangeLockKey = int64(7439)

const uniqueViolation = "23505"

// Postgres is the production account store.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    id            UUID PRIMARY KEY,
//	    email         TEXT NOT NULL UNIQUE,
//	    display_name  TEXT NOT NULL DEFAULT '',
//	    role          TEXT NOT NULL DEFAULT 'user',
//	    password_hash TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const accountColumns = "id, email, display_name, role, password_hash, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.Email,
		account.DisplayName,
		string(account.Role),
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, accountID id.UserID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(accountID)))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = lower($1)`
	return scanAccount(s.querier(ctx).QueryRowContext(ctx, query, email))
}

func (s *Postgres) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`
	rows, err := s.querier(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	err := s.querier(ctx).QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return count, nil
}

func (s *Postgres) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT count(*) FROM accounts WHERE role = $1`, string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count accounts by role: %w", err)
	}
	return count, nil
}

// Update persists profile-level fields. Role is deliberately excluded; role
// mutations go through ExecuteRoleChange.
func (s *Postgres) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET display_name = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(account.ID), account.DisplayName, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ExecuteRoleChange serializes role mutations behind a transaction-scoped
// advisory lock, so the admin count read and the subsequent role write form
// one atomic unit. Two concurrent demotions cannot both observe adminCount=2.
//
// A transaction already present in ctx (pkg/platform/tx) is joined instead of
// opening a new one; the caller then owns commit and rollback.
func (s *Postgres) ExecuteRoleChange(
	ctx context.Context,
	targetID id.UserID,
	validate func(target *models.Account, adminCount int) error,
	mutate func(target *models.Account),
) (*models.Account, error) {
	tx, joined := txcontext.From(ctx)
	if !joined {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin role change: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, roleChangeLockKey); err != nil {
		return nil, fmt.Errorf("acquire role change lock: %w", err)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	target, err := scanAccount(tx.QueryRowContext(ctx, query, uuid.UUID(targetID)))
	if err != nil {
		return nil, err
	}

	var adminCount int
	err = tx.QueryRowContext(ctx,
		`SELECT count(*) FROM accounts WHERE role = $1`, string(models.RoleAdmin)).Scan(&adminCount)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}

	if err := validate(target, adminCount); err != nil {
		return nil, err
	}

	mutate(target)

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(target.ID), string(target.Role), target.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	if !joined {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit role change: %w", err)
		}
	}
	return target, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account, err := scanAccountRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return account, err
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var (
		account models.Account
		rawID   uuid.UUID
		role    string
	)
	err := scanner.Scan(&rawID, &account.Email, &account.DisplayName, &role,
		&account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.ID = id.UserID(rawID)
	account.Role = models.Role(role)
	return &account, nil
}
