package auth

// Authorize decides whether an identity holding identityRoles may use a route
// that declares requiredRoles. No declared roles means no restriction. Otherwise
// holding any one of the required roles is sufficient; names match exactly.
func Authorize(identityRoles, requiredRoles []string) bool {
	if len(requiredRoles) == 0 {
		return true
	}
	if len(identityRoles) == 0 {
		return false
	}
	held := make(map[string]struct{}, len(identityRoles))
	for _, r := range identityRoles {
		held[r] = struct{}{}
	}
	for _, r := range requiredRoles {
		if _, ok := held[r]; ok {
			return true
		}
	}
	return false
}
