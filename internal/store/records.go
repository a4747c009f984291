package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/cirqulofit/internal/models"
)

// Record keys. They are independent: saving one never touches the other.
const (
	UserKey  = "workout-user"
	TokenKey = "cirqulo_token"
)

// Records serializes the two persisted records on top of a Store.
type Records struct {
	store Store
}

func NewRecords(s Store) *Records {
	return &Records{store: s}
}

// LoadUser returns the persisted user. ok is false when nothing was saved yet.
func (r *Records) LoadUser(ctx context.Context) (user models.User, ok bool, err error) {
	data, err := r.store.Get(ctx, UserKey)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return models.User{}, false, fmt.Errorf("decoding user record: %w", err)
	}
	return user, true, nil
}

// SaveUser overwrites the user record.
func (r *Records) SaveUser(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user record: %w", err)
	}
	return r.store.Put(ctx, UserKey, data)
}

// LoadToken returns the stored auth token, or "" when none is stored.
func (r *Records) LoadToken(ctx context.Context) (string, error) {
	data, err := r.store.Get(ctx, TokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Records) SaveToken(ctx context.Context, token string) error {
	return r.store.Put(ctx, TokenKey, []byte(token))
}

func (r *Records) ClearToken(ctx context.Context) error {
	return r.store.Delete(ctx, TokenKey)
}
