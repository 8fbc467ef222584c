package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fastygo/tasker/domain"
	"github.com/fastygo/tasker/repository"
)

type sessionRepository struct {
	store repository.KeyValueStore
}

// NewSessionRepository stores the signed-in user as JSON under SessionKey.
func NewSessionRepository(store repository.KeyValueStore) repository.SessionRepository {
	return &sessionRepository{store: store}
}

func (r *sessionRepository) Load(ctx context.Context) (*domain.User, error) {
	raw, found, err := r.store.Get(ctx, SessionKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptRecord, err)
	}
	if !user.Valid() {
		return nil, domain.ErrCorruptRecord
	}
	return &user, nil
}

func (r *sessionRepository) Save(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, SessionKey, string(payload))
}

func (r *sessionRepository) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, SessionKey)
}
