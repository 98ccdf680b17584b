package auth

import (
	"context"
	"time"

	"github.com/storefront-kit/authcore/internal/model"
)

type AggregateStoreTx interface {
	AggregateRepository
	Transactional
}

// AggregateRepository aggregates repos.
type AggregateRepository interface {
	AuthStore
}

// Transactional defines transaction methods.
type Transactional interface {
	InTx(context.Context, TxF) error
}
type TxF func(ctx context.Context, repo AggregateStoreTx) error

// AuthStore defines methods for user and reset-code entities.
type AuthStore interface {
	GetUser(ctx context.Context, documentID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error
	CreateLoginLog(ctx context.Context, loginLog *model.LoginLog) error
	UpsertPasswordResetCode(ctx context.Context, code *model.PasswordResetCode) error
	GetPasswordResetCode(ctx context.Context, email string) (*model.PasswordResetCode, error)
	// ConsumePasswordResetCode atomically marks the matching live code as
	// used. Returns false when no unused, unexpired row matched, which means
	// a concurrent confirmation won the race.
	ConsumePasswordResetCode(ctx context.Context, email, code string, now time.Time) (bool, error)
}
