package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atrium/internal/account/models"
	"atrium/internal/account/service"
	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	"atrium/pkg/platform/httputil"
	"atrium/pkg/requestcontext"
)

// AccountService is the business-logic contract the handler depends on.
type AccountService interface {
	ChangeRole(ctx context.Context, actorID, targetID id.UserID, requestedRole string) (*models.Account, error)
	UpdateProfile(ctx context.Context, actorID id.UserID, displayName string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	DashboardStats(ctx context.Context, actorID id.UserID) (*service.Stats, error)
}

// Middleware is a standard chi middleware constructor.
type Middleware func(http.Handler) http.Handler

// Handler is the thin HTTP layer over the account service.
type Handler struct {
	accounts     AccountService
	logger       *slog.Logger
	requireAuth  Middleware
	requireAdmin Middleware
}

func New(accounts AccountService, logger *slog.Logger, requireAuth, requireAdmin Middleware) *Handler {
	return &Handler{
		accounts:     accounts,
		logger:       logger,
		requireAuth:  requireAuth,
		requireAdmin: requireAdmin,
	}
}

// Register mounts the account routes. Admin routes put the authorization
// gate in front of the handler, so unauthorized callers are rejected before
// any request data is parsed or any account is loaded.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Put("/profile", h.handleUpdateProfile)
		r.Get("/dashboard/stats", h.handleDashboardStats)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Get("/admin/users", h.handleListAccounts)
			r.Patch("/admin/users/role", h.handleChangeRole)
		})
	})
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	targetID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user_id"))
		return
	}

	actorID := requestcontext.ActorID(ctx)
	account, err := h.accounts.ChangeRole(ctx, actorID, targetID, req.NewRole)
	if err != nil {
		h.logger.WarnContext(ctx, "role change rejected",
			"error", err.Error(),
			"actor_id", actorID.String(),
			"target_id", targetID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ChangeRoleResponse{
		Success: true,
		Role:    string(account.Role),
	})
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.accounts.ListAccounts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list accounts",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := AccountListResponse{
		Accounts: make([]AccountResponse, 0, len(accounts)),
		Total:    len(accounts),
	}
	for _, account := range accounts {
		resp.Accounts = append(resp.Accounts, toAccountResponse(account))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := h.accounts.UpdateProfile(ctx, requestcontext.ActorID(ctx), req.DisplayName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ProfileResponse{
		ID:          account.ID.String(),
		DisplayName: account.DisplayName,
	})
}

func (h *Handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.accounts.DashboardStats(ctx, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatsResponse(stats))
}
