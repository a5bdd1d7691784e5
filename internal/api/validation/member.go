package validation

// UpdateMemberRoleRequest mirrors the fields needed for member role
// validation.
type UpdateMemberRoleRequest struct {
	Role string
}

// ValidateUpdateMemberRoleRequest validates a member role change.
func ValidateUpdateMemberRoleRequest(req UpdateMemberRoleRequest) []FieldError {
	var errs []FieldError

	if req.Role == "" {
		errs = append(errs, FieldError{Field: "role", Message: "role is required"})
	} else if req.Role != "owner" && req.Role != "member" {
		errs = append(errs, FieldError{Field: "role", Message: "role must be \"owner\" or \"member\""})
	}

	return errs
}
