package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront-kit/authcore/internal/model"

	"go.uber.org/zap"
)

// DefaultResetCodeTTL bounds how long a reset code stays confirmable.
const DefaultResetCodeTTL = 15 * time.Minute

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("new password and confirmation do not match")
	ErrWrongOldPassword   = errors.New("old password is incorrect")
	ErrInvalidCode        = errors.New("invalid reset code")
	ErrExpiredCode        = errors.New("reset code has expired")
	ErrCodeAlreadyUsed    = errors.New("reset code has already been used")
)

type EmailSender interface {
	SendResetCodeEmail(ctx context.Context, to string, code string, expiresAt time.Time) error
}

type AuthClient struct {
	store       AggregateStoreTx
	logger      *zap.Logger
	emailSender EmailSender
	codeTTL     time.Duration
}

func NewAuthService(
	store AggregateStoreTx,
	logger *zap.Logger,
	emailSender EmailSender,
	codeTTL time.Duration,
) *AuthClient {
	if codeTTL <= 0 {
		codeTTL = DefaultResetCodeTTL
	}
	return &AuthClient{
		store:       store,
		logger:      logger,
		emailSender: emailSender,
		codeTTL:     codeTTL,
	}
}

// Login verifies the email/password pair and returns the user on success.
// Every attempt is recorded in the login log; a failed log write does not
// fail the login itself.
func (a *AuthClient) Login(ctx context.Context, args model.LoginArgs) (*model.User, error) {
	user, err := a.store.GetUserByEmail(ctx, args.Email)
	if err != nil {
		a.logger.Error("failed to get user by email: ", zap.Error(err))
		return nil, err
	}

	ok := user != nil &&
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(args.Password)) == nil

	a.recordLoginLog(ctx, args, user, ok)

	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (a *AuthClient) recordLoginLog(ctx context.Context, args model.LoginArgs, user *model.User, ok bool) {
	var userID *uint
	status := "failure"
	if ok {
		userID = &user.ID
		status = "success"
	}

	ua := user_agent.New(args.UserAgent)
	browser, _ := ua.Browser()
	device := browser
	if ua.OS() != "" {
		device = fmt.Sprintf("%s, %s", browser, ua.OS())
	}

	err := a.store.CreateLoginLog(ctx, &model.LoginLog{
		DocumentID: uuid.New().String(),
		Email:      args.Email,
		UserID:     userID,
		IpAddress:  args.IpAddress,
		UserAgent:  args.UserAgent,
		Device:     device,
		Status:     status,
	})
	if err != nil {
		a.logger.Error("failed to create login log: ", zap.Error(err))
	}
}

// RequestReset issues a fresh reset code for the email and mails it.
// Unknown emails succeed silently so the endpoint does not leak which
// accounts exist. Issuing a new code supersedes any prior one for the
// same email.
func (a *AuthClient) RequestReset(ctx context.Context, args model.RequestResetArgs) error {
	user, err := a.store.GetUserByEmail(ctx, args.Email)
	if err != nil {
		a.logger.Error("failed to get user by email: ", zap.Error(err))
		return err
	}
	if user == nil {
		a.logger.Debug("password reset requested for unknown email")
		return nil
	}

	code, err := generateResetCode()
	if err != nil {
		a.logger.Error("failed to generate reset code: ", zap.Error(err))
		return err
	}

	now := time.Now()
	resetCode := &model.PasswordResetCode{
		Email:     args.Email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.codeTTL),
		Used:      false,
	}
	err = a.store.UpsertPasswordResetCode(ctx, resetCode)
	if err != nil {
		a.logger.Error("failed to upsert password reset code: ", zap.Error(err))
		return err
	}

	// A delivery failure is not rolled back: the stored code is harmless
	// and expires unused.
	err = a.emailSender.SendResetCodeEmail(ctx, args.Email, code, resetCode.ExpiresAt)
	if err != nil {
		a.logger.Error("failed to send reset code email: ", zap.Error(err))
		return err
	}

	return nil
}

// ConfirmReset validates the code and, in a single transaction, marks it used
// and overwrites the password hash. The conditional consume guarantees that
// of N concurrent confirmations with the same code exactly one succeeds.
func (a *AuthClient) ConfirmReset(ctx context.Context, args model.ConfirmResetArgs) error {
	return a.store.InTx(ctx, func(ctx context.Context, repo AggregateStoreTx) error {
		resetCode, err := repo.GetPasswordResetCode(ctx, args.Email)
		if err != nil {
			a.logger.Error("failed to get password reset code: ", zap.Error(err))
			return err
		}
		if resetCode == nil ||
			subtle.ConstantTimeCompare([]byte(resetCode.Code), []byte(args.Code)) != 1 {
			return ErrInvalidCode
		}
		if resetCode.Used {
			return ErrCodeAlreadyUsed
		}

		now := time.Now()
		if now.After(resetCode.ExpiresAt) {
			return ErrExpiredCode
		}

		consumed, err := repo.ConsumePasswordResetCode(ctx, args.Email, args.Code, now)
		if err != nil {
			a.logger.Error("failed to consume password reset code: ", zap.Error(err))
			return err
		}
		if !consumed {
			return ErrCodeAlreadyUsed
		}

		user, err := repo.GetUserByEmail(ctx, args.Email)
		if err != nil {
			a.logger.Error("failed to get user by email: ", zap.Error(err))
			return err
		}
		if user == nil {
			return ErrInvalidCode
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(args.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			a.logger.Error("failed to hash new password: ", zap.Error(err))
			return err
		}

		return repo.UpdatePasswordHash(ctx, user.ID, string(hash))
	})
}

// ChangePassword overwrites the stored hash after verifying the old password.
func (a *AuthClient) ChangePassword(ctx context.Context, args model.ChangePasswordArgs) error {
	if args.NewPassword != args.ConfirmPassword {
		return ErrPasswordMismatch
	}

	user, err := a.store.GetUser(ctx, args.UserDocID)
	if err != nil {
		a.logger.Error("failed to get user: ", zap.Error(err))
		return err
	}
	if user == nil {
		return ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(args.OldPassword)) != nil {
		return ErrWrongOldPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(args.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		a.logger.Error("failed to hash new password: ", zap.Error(err))
		return err
	}

	err = a.store.UpdatePasswordHash(ctx, user.ID, string(hash))
	if err != nil {
		a.logger.Error("failed to update password hash: ", zap.Error(err))
		return err
	}

	return nil
}

// generateResetCode returns a 6-digit code. Short enough to type from an
// email, random enough for a 15 minute single-use window.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
