package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/config"
	"github.com/example/face-attendance/internal/logging"
	"github.com/example/face-attendance/internal/observability"
	"github.com/example/face-attendance/internal/recognizer"
)

const (
	extractFallback = "failed to extract face"
	matchFallback   = "failed to analyze face"
	timeoutMessage  = "face recognition service timed out"

	// maxResponseBytes bounds how much of a recognizer response is read.
	maxResponseBytes = 1 << 20
)

// NewRecognizerClient returns a recognizer.Client speaking multipart HTTP to the external
// face recognition service. Calls are never retried.
func NewRecognizerClient(cfg config.RecognizerConfig, logger *zap.Logger) (recognizer.Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid recognizer URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid recognizer URL scheme %q: must be http or https", base.Scheme)
	}
	if base.Host == "" {
		return nil, errors.New("invalid recognizer URL: missing host")
	}
	return &httpRecognizer{
		extractURL: base.String() + cfg.ExtractPath,
		matchURL:   base.String() + cfg.MatchPath,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("recognizer_client"),
	}, nil
}

type httpRecognizer struct {
	extractURL string
	matchURL   string
	client     *http.Client
	logger     *zap.Logger
}

type envelope[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error"`
}

type extractData struct {
	VectorBase64 string `json:"vector_base64"`
}

type matchData struct {
	IsMatch              bool    `json:"is_match"`
	Distance             float64 `json:"distance"`
	ConfidencePercentage float64 `json:"confidence_percentage"`
}

func (r *httpRecognizer) Extract(ctx context.Context, image recognizer.Image) (*recognizer.ExtractResult, error) {
	var data extractData
	if err := r.post(ctx, "extract", r.extractURL, image, nil, extractFallback, &data); err != nil {
		return nil, err
	}
	if data.VectorBase64 == "" {
		return nil, apperror.Recognizer(extractFallback)
	}
	return &recognizer.ExtractResult{TemplateBase64: data.VectorBase64}, nil
}

func (r *httpRecognizer) Match(ctx context.Context, live recognizer.Image, registeredTemplateBase64 string) (*recognizer.MatchResult, error) {
	var data matchData
	fields := map[string]string{"registered_face": registeredTemplateBase64}
	if err := r.post(ctx, "match", r.matchURL, live, fields, matchFallback, &data); err != nil {
		return nil, err
	}
	return &recognizer.MatchResult{
		IsMatch:           data.IsMatch,
		Distance:          data.Distance,
		ConfidencePercent: data.ConfidencePercentage,
	}, nil
}

func (r *httpRecognizer) post(ctx context.Context, operation, endpoint string, image recognizer.Image, fields map[string]string, fallback string, out any) (err error) {
	start := time.Now()
	defer func() {
		observability.ObserveRecognizerCall(operation, time.Since(start), err)
	}()

	body, contentType, err := buildMultipart(image, fields)
	if err != nil {
		return logging.NewOperationError("recognizer."+operation+".encode", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return logging.NewOperationError("recognizer."+operation+".request", "", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			r.logger.Warn("recognizer call timed out", zap.String("operation", operation), zap.Error(err))
			return apperror.Wrap(apperror.KindRecognizer, err, timeoutMessage)
		}
		wrapped := logging.NewOperationError("recognizer."+operation, "", err)
		r.logger.Error("recognizer call failed", logging.ErrorFields(wrapped)...)
		return wrapped
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return apperror.Wrap(apperror.KindRecognizer, err, timeoutMessage)
		}
		return apperror.Wrap(apperror.KindRecognizer, err, fallback)
	}

	env := envelope[json.RawMessage]{}
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fallback
		if decodeErr == nil && strings.TrimSpace(env.Error) != "" {
			message = env.Error
		}
		r.logger.Warn("recognizer rejected request",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("error", message),
		)
		return apperror.Recognizer("%s", message)
	}

	if decodeErr != nil || env.Data == nil {
		r.logger.Warn("recognizer returned malformed body", zap.String("operation", operation), zap.Error(decodeErr))
		return apperror.Wrap(apperror.KindRecognizer, decodeErr, fallback)
	}
	if err := json.Unmarshal(*env.Data, out); err != nil {
		r.logger.Warn("recognizer returned malformed data", zap.String("operation", operation), zap.Error(err))
		return apperror.Wrap(apperror.KindRecognizer, err, fallback)
	}
	return nil
}

func buildMultipart(image recognizer.Image, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := image.Filename
	if filename == "" {
		filename = "image"
	}
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
