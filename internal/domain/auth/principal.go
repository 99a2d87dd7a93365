// Package auth describes the caller resolved from a session.
package auth

import (
	"context"
	"fmt"
)

// Role of an authenticated user.
type Role string

// Supported roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is supported.
func (r Role) IsValid() bool { return r == RoleUser || r == RoleAdmin }

// Principal is the authenticated caller.
type Principal struct {
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
}

// Validate checks that the principal identifies a user with a known role.
func (p *Principal) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if !p.Role.IsValid() {
		return fmt.Errorf("unknown role %q", p.Role)
	}
	return nil
}

// IsAdmin reports whether the principal has admin rights.
func (p *Principal) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

type principalKey struct{}

// WithPrincipal stores the caller in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the caller, nil for anonymous requests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
