package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/facecodec"
	"github.com/example/face-attendance/internal/logging"
	"github.com/example/face-attendance/internal/observability"
	"github.com/example/face-attendance/internal/recognizer"
)

// MatchOutcome is the result of a confirmed check-in verification.
type MatchOutcome struct {
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	IsMatch    bool      `json:"is_match"`
	Distance   float64   `json:"distance"`
	Confidence float64   `json:"confidence"`
	VerifiedAt time.Time `json:"verified_at"`
}

const notEnrolledMessage = "face not enrolled; register your face before checking in"

func checkInCacheKey(requestID string) string {
	return "checkin:" + requestID
}

// VerifyCheckIn compares a live photo of userID against the enrolled template. A
// negative decision fails with an Unauthorized error carrying the reported confidence.
func (uc *FaceUseCase) VerifyCheckIn(ctx context.Context, userID string, live recognizer.Image) (outcome *MatchOutcome, err error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.verify_checkin", userID)
	defer func() {
		observability.CheckInVerifications.WithLabelValues(observability.ResultLabel(err, "match")).Inc()
	}()

	if !validID(userID) {
		return nil, apperror.Forbidden(notEnrolledMessage)
	}

	face, err := uc.repo.FindFaceByUserID(ctx, userID)
	if err != nil {
		opLogger.Error("failed to load face template", zap.Error(err))
		return nil, err
	}
	if face == nil {
		return nil, apperror.Forbidden(notEnrolledMessage)
	}

	result, err := uc.recognizer.Match(ctx, live, facecodec.EncodeTemplate(face.FaceData))
	if err != nil {
		opLogger.Warn("face match failed", zap.Error(err))
		return nil, err
	}

	if !result.IsMatch {
		opLogger.Info("face did not match",
			zap.Float64("distance", result.Distance),
			zap.Float64("confidence", result.ConfidencePercent),
		)
		return nil, apperror.Unauthorized("face does not match (similarity only %s%%)",
			strconv.FormatFloat(result.ConfidencePercent, 'f', -1, 64))
	}

	outcome = &MatchOutcome{
		RequestID:  uuid.NewString(),
		UserID:     userID,
		IsMatch:    true,
		Distance:   result.Distance,
		Confidence: result.ConfidencePercent,
		VerifiedAt: uc.now().UTC(),
	}

	uc.cacheOutcome(ctx, opLogger, outcome)
	if uc.events != nil {
		if err := uc.events.PublishCheckIn(ctx, userID, outcome); err != nil {
			opLogger.Warn("failed to publish check-in event", zap.Error(err))
		}
	}

	opLogger.Info("face matched",
		zap.String("request_id", outcome.RequestID),
		zap.Float64("confidence", outcome.Confidence),
	)
	return outcome, nil
}

func (uc *FaceUseCase) cacheOutcome(ctx context.Context, opLogger *zap.Logger, outcome *MatchOutcome) {
	if uc.cache == nil {
		return
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		opLogger.Warn("failed to encode check-in outcome", zap.Error(err))
		return
	}
	if err := uc.cache.Set(ctx, checkInCacheKey(outcome.RequestID), payload, uc.resultTTL); err != nil {
		opLogger.Warn("failed to cache check-in outcome", zap.Error(err))
	}
}

// GetCheckIn returns a recently confirmed outcome owned by userID. Expired, unknown and
// foreign outcomes are all reported as not found.
func (uc *FaceUseCase) GetCheckIn(ctx context.Context, userID, requestID string) (*MatchOutcome, error) {
	if uc.cache == nil {
		return nil, apperror.NotFound("check-in result not found")
	}

	cached, err := uc.cache.Get(ctx, checkInCacheKey(requestID))
	if errors.Is(err, ErrCacheMiss) {
		return nil, apperror.NotFound("check-in result not found")
	}
	if err != nil {
		return nil, logging.NewOperationError("usecase.get_checkin", userID, err)
	}

	var outcome MatchOutcome
	if err := json.Unmarshal([]byte(cached), &outcome); err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, err, "cached check-in result is corrupt")
	}
	if outcome.UserID != userID {
		return nil, apperror.NotFound("check-in result not found")
	}
	return &outcome, nil
}
