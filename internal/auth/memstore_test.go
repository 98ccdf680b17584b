package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/storefront-kit/authcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// memStore is a mutex-guarded in-memory AggregateStoreTx used where the
// mock-based tests cannot express real interleavings.
type memStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	codes map[string]*model.PasswordResetCode
	logs  []*model.LoginLog
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*model.User),
		codes: make(map[string]*model.PasswordResetCode),
	}
}

func (s *memStore) addUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Email] = u
}

func (s *memStore) GetUser(_ context.Context, documentID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.DocumentID == documentID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *memStore) UpdatePasswordHash(_ context.Context, userID uint, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
		}
	}
	return nil
}

func (s *memStore) CreateLoginLog(_ context.Context, loginLog *model.LoginLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, loginLog)
	return nil
}

func (s *memStore) UpsertPasswordResetCode(_ context.Context, code *model.PasswordResetCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *code
	s.codes[code.Email] = &copied
	return nil
}

func (s *memStore) GetPasswordResetCode(_ context.Context, email string) (*model.PasswordResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (s *memStore) ConsumePasswordResetCode(_ context.Context, email, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	if !ok || c.Code != code || c.Used || !c.ExpiresAt.After(now) {
		return false, nil
	}
	c.Used = true
	return true, nil
}

func (s *memStore) InTx(ctx context.Context, f TxF) error {
	return f(ctx, s)
}

func seedUser(t *testing.T, s *memStore, email, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		Model:        gorm.Model{ID: uint(len(s.users) + 1)},
		DocumentID:   "doc-" + email,
		Email:        email,
		PasswordHash: string(hash),
	}
	s.addUser(u)
	return u
}

type recordingSender struct {
	mu    sync.Mutex
	codes []string
}

func (r *recordingSender) SendResetCodeEmail(_ context.Context, _ string, code string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return nil
}

func (r *recordingSender) lastCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[len(r.codes)-1]
}

func TestConfirmReset_ConcurrentConfirmationsSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{}
	seedUser(t, store, "a@b.com", "old-password")

	authClient := NewAuthService(store, zap.NewNop(), sender, 15*time.Minute)

	require.NoError(t, authClient.RequestReset(ctx, model.RequestResetArgs{Email: "a@b.com"}))
	code := sender.lastCode()

	const n = 16
	results := make(chan error, n)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < n; i++ {
		go func() {
			start.Wait()
			results <- authClient.ConfirmReset(ctx, model.ConfirmResetArgs{
				Email:       "a@b.com",
				Code:        code,
				NewPassword: "new-password",
			})
		}()
	}
	start.Done()

	var successes, rejections int
	for i := 0; i < n; i++ {
		err := <-results
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrCodeAlreadyUsed) || errors.Is(err, ErrInvalidCode):
			rejections++
		default:
			t.Errorf("unexpected confirm error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, rejections)

	// The winner's password took effect.
	user, err := store.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password")))
}

func TestRequestReset_NewCodeSupersedesOldOne(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{}
	seedUser(t, store, "a@b.com", "old-password")

	authClient := NewAuthService(store, zap.NewNop(), sender, 15*time.Minute)

	require.NoError(t, authClient.RequestReset(ctx, model.RequestResetArgs{Email: "a@b.com"}))
	firstCode := sender.lastCode()

	require.NoError(t, authClient.RequestReset(ctx, model.RequestResetArgs{Email: "a@b.com"}))
	secondCode := sender.lastCode()

	if firstCode != secondCode {
		err := authClient.ConfirmReset(ctx, model.ConfirmResetArgs{
			Email:       "a@b.com",
			Code:        firstCode,
			NewPassword: "new-password",
		})
		require.ErrorIs(t, err, ErrInvalidCode)
	}

	err := authClient.ConfirmReset(ctx, model.ConfirmResetArgs{
		Email:       "a@b.com",
		Code:        secondCode,
		NewPassword: "new-password",
	})
	require.NoError(t, err)
}

func TestConfirmReset_SecondConfirmationReportsAlreadyUsed(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	sender := &recordingSender{}
	seedUser(t, store, "a@b.com", "old-password")

	authClient := NewAuthService(store, zap.NewNop(), sender, 15*time.Minute)

	require.NoError(t, authClient.RequestReset(ctx, model.RequestResetArgs{Email: "a@b.com"}))
	code := sender.lastCode()

	require.NoError(t, authClient.ConfirmReset(ctx, model.ConfirmResetArgs{
		Email:       "a@b.com",
		Code:        code,
		NewPassword: "new-password",
	}))

	err := authClient.ConfirmReset(ctx, model.ConfirmResetArgs{
		Email:       "a@b.com",
		Code:        code,
		NewPassword: "another-password",
	})
	require.ErrorIs(t, err, ErrCodeAlreadyUsed)
}
