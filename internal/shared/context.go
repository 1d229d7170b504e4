package shared

import "context"

// Principal describes the authenticated actor for the lifetime of a request.
// It is built once from a verified access token and never mutated afterwards.
type Principal struct {
	UserID      int64
	Email       string
	SchoolID    *int64
	RoleIDs     []int64
	RoleSlug    string
	Permissions []string
}

// IsSystemAdmin reports whether the principal operates without a school scope.
func (p *Principal) IsSystemAdmin() bool {
	return p != nil && p.SchoolID == nil
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
