// Package store provides account persistence. Two implementations share one
// contract: InMemory for tests and dev, Postgres for production.
//
// The critical method is ExecuteRoleChange: the store holds its lock (mutex
// here, transaction + advisory lock in Postgres) across the admin count read,
// the validation callback, and the mutation, so concurrent role changes can
// never both observe a stale count and strip the last admin.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"atrium/internal/account/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded account store.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.UserID]models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[id.UserID]models.Account)}
}

// Create stores a new account. Email uniqueness is case-insensitive.
func (s *InMemory) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return sentinel.ErrConflict
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, accountID id.UserID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(accountID)
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Email, email) {
			copied := account
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns all accounts ordered by creation time, newest first.
func (s *InMemory) List(ctx context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		copied := account
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (s *InMemory) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

func (s *InMemory) CountByRole(ctx context.Context, role models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countByRoleLocked(role), nil
}

// Update persists profile-level fields of an existing account. Role is
// deliberately not written here; role mutations go through ExecuteRoleChange.
func (s *InMemory) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[account.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing.DisplayName = account.DisplayName
	existing.UpdatedAt = account.UpdatedAt
	s.accounts[account.ID] = existing
	return nil
}

// ExecuteRoleChange runs validate then mutate on the target account while
// holding the store lock. The adminCount passed to validate is consistent
// with the state being mutated; no other role change can interleave.
func (s *InMemory) ExecuteRoleChange(
	ctx context.Context,
	targetID id.UserID,
	validate func(target *models.Account, adminCount int) error,
	mutate func(target *models.Account),
) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, err := s.findLocked(targetID)
	if err != nil {
		return nil, err
	}

	if err := validate(target, s.countByRoleLocked(models.RoleAdmin)); err != nil {
		return nil, err
	}

	mutate(target)
	s.accounts[targetID] = *target
	return target, nil
}

func (s *InMemory) findLocked(accountID id.UserID) (*models.Account, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := account
	return &copied, nil
}

func (s *InMemory) countByRoleLocked(role models.Role) int {
	count := 0
	for _, account := range s.accounts {
		if account.Role == role {
			count++
		}
	}
	return count
}
