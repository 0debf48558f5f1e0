package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/auth"
	"github.com/example/face-attendance/internal/recognizer"
	"github.com/example/face-attendance/internal/repository"
	"github.com/example/face-attendance/internal/usecase"
)

// FaceService is the enrollment and check-in workflow used by FaceHandler.
type FaceService interface {
	RegisterFace(ctx context.Context, userID string, image recognizer.Image) (*repository.UserFace, error)
	VerifyCheckIn(ctx context.Context, userID string, live recognizer.Image) (*usecase.MatchOutcome, error)
	GetCheckIn(ctx context.Context, userID, requestID string) (*usecase.MatchOutcome, error)
}

type FaceHandler struct {
	faces          FaceService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewFaceHandler(faces FaceService, maxUploadBytes int64, logger *zap.Logger) *FaceHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = MaxUploadSize
	}
	return &FaceHandler{faces: faces, maxUploadBytes: maxUploadBytes, logger: logger.Named("faces")}
}

// Register enrolls the face of the authenticated user.
func (h *FaceHandler) Register(c *gin.Context) {
	userID, _ := auth.GetUserID(c.Request.Context())
	h.register(c, userID)
}

// RegisterForUser enrolls the face of the user named in the route.
func (h *FaceHandler) RegisterForUser(c *gin.Context) {
	h.register(c, c.Param("userId"))
}

func (h *FaceHandler) register(c *gin.Context, userID string) {
	image, uerr := readImage(c, h.maxUploadBytes)
	if uerr != nil {
		respond(c, uerr.status, uerr.message, nil)
		return
	}

	face, err := h.faces.RegisterFace(c.Request.Context(), userID, image)
	if err != nil {
		respondError(c, h.logger, err, "failed to register face")
		return
	}

	respond(c, http.StatusCreated, "face registered successfully", gin.H{
		"user_id":       face.UserID,
		"registered_at": registeredAt(face),
	})
}

// CheckIn verifies a live photo of the authenticated user.
func (h *FaceHandler) CheckIn(c *gin.Context) {
	userID, _ := auth.GetUserID(c.Request.Context())

	image, uerr := readImage(c, h.maxUploadBytes)
	if uerr != nil {
		respond(c, uerr.status, uerr.message, nil)
		return
	}

	outcome, err := h.faces.VerifyCheckIn(c.Request.Context(), userID, image)
	if err != nil {
		respondError(c, h.logger, err, "failed to verify check-in")
		return
	}

	respond(c, http.StatusOK, "face verified, check-in confirmed", outcome)
}

// GetCheckIn returns a recently confirmed check-in of the authenticated user.
func (h *FaceHandler) GetCheckIn(c *gin.Context) {
	userID, _ := auth.GetUserID(c.Request.Context())

	outcome, err := h.faces.GetCheckIn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "failed to load check-in result")
		return
	}

	respond(c, http.StatusOK, "check-in result", outcome)
}

func registeredAt(face *repository.UserFace) time.Time {
	if face.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return face.CreatedAt.UTC()
}
