package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/face-attendance/internal/logging"
)

// FindUserByNIP returns the user with the given employee number, or nil when absent.
func (r *Repository) FindUserByNIP(ctx context.Context, nip string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("nip = ?", nip).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, logging.NewOperationError("repository.find_user_by_nip", "", err)
	}
	return &user, nil
}
