// Package service holds the account business logic: the authorization gate,
// the role authority, and the CRUD around them. Transport lives in handler,
// persistence in store; this layer owns the invariants.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"atrium/internal/account/models"
	"atrium/internal/audit"
	"atrium/internal/platform/metrics"
	id "atrium/pkg/domain"
)

// Store is the account persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.UserID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
	Update(ctx context.Context, account *models.Account) error
	ExecuteRoleChange(
		ctx context.Context,
		targetID id.UserID,
		validate func(target *models.Account, adminCount int) error,
		mutate func(target *models.Account),
	) (*models.Account, error)
}

// AuditPublisher is the audit log writer contract.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
	ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]audit.Event, error)
}

// Service orchestrates account operations.
type Service struct {
	accounts Store
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func New(accounts Store, auditor AuditPublisher, logger *slog.Logger, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		accounts: accounts,
		auditor:  auditor,
		logger:   logger,
		metrics:  cfg.metrics,
		tracer:   otel.Tracer("atrium/account"),
	}
}

type serviceConfig struct {
	metrics *metrics.Metrics
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}
