package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/logging"
)

// UserExists reports whether the identity is present in the users table.
func (r *Repository) UserExists(ctx context.Context, userID string) (bool, error) {
	ok, err := r.exists(ctx, &User{}, "id = ?", userID)
	return ok, logging.NewOperationError("repository.user_exists", userID, err)
}

// FaceExists reports whether a face template is stored for the identity.
func (r *Repository) FaceExists(ctx context.Context, userID string) (bool, error) {
	ok, err := r.exists(ctx, &UserFace{}, "user_id = ?", userID)
	return ok, logging.NewOperationError("repository.face_exists", userID, err)
}

// FindFaceByUserID returns the stored template or nil when the identity is not enrolled.
func (r *Repository) FindFaceByUserID(ctx context.Context, userID string) (*UserFace, error) {
	var face UserFace
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&face).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, logging.NewOperationError("repository.find_face", userID, err)
	}
	return &face, nil
}

// CreateFace inserts a new template. A concurrent enrollment that loses the race on the
// user_id unique index surfaces as a Conflict.
func (r *Repository) CreateFace(ctx context.Context, face *UserFace) error {
	err := r.db.WithContext(ctx).Create(face).Error
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		r.logger.Warn("duplicate face enrollment rejected by store", zap.String("user_id", face.UserID))
		return apperror.Wrap(apperror.KindConflict, err, "a face is already enrolled for this user")
	}
	return logging.NewOperationError("repository.create_face", face.UserID, err)
}
