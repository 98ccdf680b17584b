package store

import (
	"github.com/storefront-kit/authcore/internal/model"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	entities := []interface{}{
		model.User{},
		model.LoginLog{},
		model.PasswordResetCode{},
	}
	for i := range entities {
		err := migrateModel(db, entities[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func migrateModel(db *gorm.DB, dst any) error {
	return db.Migrator().AutoMigrate(dst)
}
