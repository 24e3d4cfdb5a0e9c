package handler

// ChangeRoleRequest is the wire shape for a role mutation.
type ChangeRoleRequest struct {
	UserID  string `json:"user_id"`
	NewRole string `json:"new_role"`
}

// UpdateProfileRequest is the wire shape for a profile edit.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}
