// Package session resolves bearer tokens to principals.
// Sessions are issued elsewhere; Save exists for seeding and tests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/incidex/internal/db"
	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type keySpace interface {
	Session(token string) string
}

// Repo reads sessions from the KV store.
type Repo struct {
	store store
	keys  keySpace
}

// New creates a session repository.
func New(s store, ks keySpace) *Repo {
	return &Repo{store: s, keys: ks}
}

// Resolve returns the principal behind token.
// Unknown, expired or malformed sessions yield domain.ErrUnauthorized.
func (r *Repo) Resolve(ctx context.Context, token string) (*auth.Principal, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	raw, err := r.store.Get(ctx, r.keys.Session(token))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var p auth.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed session", domain.ErrUnauthorized)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return &p, nil
}

// Save stores a session. ttl <= 0 keeps it until deleted.
func (r *Repo) Save(ctx context.Context, token string, p *auth.Principal, ttl time.Duration) error {
	if token == "" {
		return domain.NewValidationError("token", "is required")
	}
	if err := p.Validate(); err != nil {
		return domain.NewValidationError("principal", err.Error())
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, r.keys.Session(token), b, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
