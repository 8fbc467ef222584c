package repository

import (
	"context"

	"github.com/fastygo/tasker/domain"
)

// SessionRepository persists the signed-in user. Load returns (nil, nil) when
// no session is stored and domain.ErrCorruptRecord when the record is malformed.
type SessionRepository interface {
	Load(ctx context.Context) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
	Clear(ctx context.Context) error
}
