// Package identity reads display names and avatars from the user directory.
package identity

import (
	"context"
	"fmt"
)

// Directory hash fields.
const (
	fieldName   = "name"
	fieldAvatar = "avatar"
)

type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

type keySpace interface {
	UserName(userID string) string
	UserInfo(userID string) string
}

// Repo is a read-only view of the user directory.
type Repo struct {
	store store
	keys  keySpace
}

// New creates an identity repository.
func New(s store, ks keySpace) *Repo {
	return &Repo{store: s, keys: ks}
}

// LookupNames returns display names by user id. Unknown users are omitted.
func (r *Repo) LookupNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	return r.lookup(ctx, userIDs, r.keys.UserName, fieldName)
}

// LookupAvatars returns avatar URLs by user id. Unknown users are omitted.
func (r *Repo) LookupAvatars(ctx context.Context, userIDs []string) (map[string]string, error) {
	return r.lookup(ctx, userIDs, r.keys.UserInfo, fieldAvatar)
}

func (r *Repo) lookup(
	ctx context.Context, userIDs []string, key func(string) string, field string,
) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}
	hashKeys := make([]string, len(userIDs))
	for i, id := range userIDs {
		hashKeys[i] = key(id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, hashKeys)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", field, err)
	}
	out := make(map[string]string, len(userIDs))
	for i, h := range hashes {
		if v, ok := h[field]; ok && v != "" {
			out[userIDs[i]] = v
		}
	}
	return out, nil
}
