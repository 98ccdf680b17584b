package store

import (
	"context"
	"errors"
	"time"

	"github.com/storefront-kit/authcore/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (p *PostgresStore) GetUser(ctx context.Context, documentID string) (*model.User, error) {
	var user *model.User

	err := p.db.WithContext(ctx).Model(&model.User{}).Where("document_id = ?", documentID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user *model.User

	err := p.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (p *PostgresStore) UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error {
	err := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("password_hash", passwordHash).Error
	if err != nil {
		return err
	}

	return nil
}

func (p *PostgresStore) CreateLoginLog(ctx context.Context, loginLog *model.LoginLog) error {
	err := p.db.WithContext(ctx).Create(&loginLog).Error
	if err != nil {
		return err
	}

	return nil
}

// UpsertPasswordResetCode inserts the code, replacing any existing row for the
// same email. At most one outstanding code per email.
func (p *PostgresStore) UpsertPasswordResetCode(ctx context.Context, code *model.PasswordResetCode) error {
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "issued_at", "expires_at", "used", "updated_at"}),
	}).Create(&code).Error
	if err != nil {
		return err
	}

	return nil
}

func (p *PostgresStore) GetPasswordResetCode(ctx context.Context, email string) (*model.PasswordResetCode, error) {
	var resetCode *model.PasswordResetCode

	err := p.db.WithContext(ctx).Model(&model.PasswordResetCode{}).Where("email = ?", email).First(&resetCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return resetCode, nil
}

// ConsumePasswordResetCode is the compare-and-swap behind single-use codes:
// the conditional UPDATE matches only an unused, unexpired row, so two
// concurrent confirmations cannot both observe RowsAffected == 1.
func (p *PostgresStore) ConsumePasswordResetCode(ctx context.Context, email, code string, now time.Time) (bool, error) {
	res := p.db.WithContext(ctx).Model(&model.PasswordResetCode{}).
		Where("email = ? AND code = ? AND used = false AND expires_at > ?", email, code, now).
		Update("used", true)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}
