package handler

import (
	"time"

	"atrium/internal/account/models"
	"atrium/internal/account/service"
	"atrium/internal/audit"
)

// ChangeRoleResponse confirms a role mutation.
type ChangeRoleResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
}

// AccountResponse is the HTTP DTO for one account.
type AccountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// AccountListResponse wraps the admin user listing.
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int               `json:"total"`
}

// ActivityResponse is one recent-activity entry on the dashboard.
type ActivityResponse struct {
	Action    string            `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// StatsResponse feeds the dashboard widgets.
type StatsResponse struct {
	TotalAccounts  int                `json:"total_accounts"`
	AdminAccounts  int                `json:"admin_accounts"`
	RecentActivity []ActivityResponse `json:"recent_activity"`
}

// ProfileResponse confirms a profile edit.
type ProfileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

func toAccountResponse(account *models.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID.String(),
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        string(account.Role),
		CreatedAt:   account.CreatedAt,
	}
}

func toStatsResponse(stats *service.Stats) StatsResponse {
	resp := StatsResponse{
		TotalAccounts:  stats.TotalAccounts,
		AdminAccounts:  stats.AdminAccounts,
		RecentActivity: make([]ActivityResponse, 0, len(stats.RecentActivity)),
	}
	for _, event := range stats.RecentActivity {
		resp.RecentActivity = append(resp.RecentActivity, toActivityResponse(event))
	}
	return resp
}

func toActivityResponse(event audit.Event) ActivityResponse {
	return ActivityResponse{
		Action:    string(event.Action),
		Timestamp: event.Timestamp,
		Details:   event.Details,
	}
}
