package usecase

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/facecodec"
	"github.com/example/face-attendance/internal/logging"
	"github.com/example/face-attendance/internal/observability"
	"github.com/example/face-attendance/internal/recognizer"
	"github.com/example/face-attendance/internal/repository"
)

// FaceRepository defines the persistence operations needed by enrollment and check-in.
type FaceRepository interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	FaceExists(ctx context.Context, userID string) (bool, error)
	FindFaceByUserID(ctx context.Context, userID string) (*repository.UserFace, error)
	CreateFace(ctx context.Context, face *repository.UserFace) error
}

// ObjectStore archives enrollment photos.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// EventPublisher announces confirmed check-ins to downstream attendance bookkeeping.
type EventPublisher interface {
	PublishCheckIn(ctx context.Context, userID string, data interface{}) error
}

// FaceUseCase encapsulates the face enrollment and check-in verification flows.
type FaceUseCase struct {
	repo       FaceRepository
	recognizer recognizer.Client
	cache      Cache
	photos     ObjectStore
	events     EventPublisher
	logger     *zap.Logger
	resultTTL  time.Duration
	now        func() time.Time
}

// FaceOption configures optional collaborators of FaceUseCase.
type FaceOption func(*FaceUseCase)

// WithResultCache caches confirmed check-in outcomes for ttl.
func WithResultCache(cache Cache, ttl time.Duration) FaceOption {
	return func(uc *FaceUseCase) {
		uc.cache = cache
		if ttl > 0 {
			uc.resultTTL = ttl
		}
	}
}

// WithPhotoArchive stores enrollment photos after the template is saved.
func WithPhotoArchive(store ObjectStore) FaceOption {
	return func(uc *FaceUseCase) { uc.photos = store }
}

// WithEventPublisher publishes confirmed check-ins.
func WithEventPublisher(publisher EventPublisher) FaceOption {
	return func(uc *FaceUseCase) { uc.events = publisher }
}

// NewFaceUseCase constructs a new use case instance.
func NewFaceUseCase(repo FaceRepository, client recognizer.Client, logger *zap.Logger, opts ...FaceOption) *FaceUseCase {
	uc := &FaceUseCase{
		repo:       repo,
		recognizer: client,
		logger:     logger.Named("face_usecase"),
		resultTTL:  5 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RegisterFace enrolls the face template of userID exactly once. The template row is
// written only after the recognizer has produced it.
func (uc *FaceUseCase) RegisterFace(ctx context.Context, userID string, image recognizer.Image) (face *repository.UserFace, err error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.register_face", userID)
	defer func() {
		observability.FaceEnrollments.WithLabelValues(observability.ResultLabel(err, "enrolled")).Inc()
	}()

	if !validID(userID) {
		return nil, apperror.NotFound("user not found")
	}

	exists, err := uc.repo.UserExists(ctx, userID)
	if err != nil {
		opLogger.Error("failed to look up user", zap.Error(err))
		return nil, err
	}
	if !exists {
		return nil, apperror.NotFound("user not found")
	}

	enrolled, err := uc.repo.FaceExists(ctx, userID)
	if err != nil {
		opLogger.Error("failed to check existing face", zap.Error(err))
		return nil, err
	}
	if enrolled {
		return nil, apperror.Conflict("a face is already enrolled for this user; use re-enrollment to replace it")
	}

	extracted, err := uc.recognizer.Extract(ctx, image)
	if err != nil {
		opLogger.Warn("face extraction failed", zap.Error(err))
		return nil, err
	}

	template, err := facecodec.DecodeTemplate(extracted.TemplateBase64)
	if err != nil {
		opLogger.Error("recognizer returned an undecodable template", zap.Error(err))
		return nil, err
	}

	face = &repository.UserFace{UserID: userID, FaceData: template}
	if err := uc.repo.CreateFace(ctx, face); err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			opLogger.Warn("concurrent enrollment lost the race", zap.Error(err))
		} else {
			opLogger.Error("failed to persist face template", zap.Error(err))
		}
		return nil, err
	}

	uc.archivePhoto(ctx, opLogger, userID, image)
	opLogger.Info("face enrolled", zap.Int("template_bytes", len(template)))
	return face, nil
}

func (uc *FaceUseCase) archivePhoto(ctx context.Context, opLogger *zap.Logger, userID string, image recognizer.Image) {
	if uc.photos == nil {
		return
	}
	key := EnrollmentPhotoKey(userID, image)
	if err := uc.photos.PutObject(ctx, key, image.Data, image.ContentType); err != nil {
		opLogger.Warn("failed to archive enrollment photo", zap.String("key", key), zap.Error(err))
	}
}

// EnrollmentPhotoKey is the object key under which the enrollment photo of userID is kept.
func EnrollmentPhotoKey(userID string, image recognizer.Image) string {
	ext := strings.ToLower(path.Ext(image.Filename))
	switch image.ContentType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	}
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("faces/%s/enrollment%s", userID, ext)
}

// validID reports whether id can be an identity at all. Identities are UUID columns in
// the store, so anything else is known to be absent without a query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
