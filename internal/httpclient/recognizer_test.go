package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/config"
	"github.com/example/face-attendance/internal/recognizer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) recognizer.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewRecognizerClient(config.RecognizerConfig{
		BaseURL:     server.URL,
		ExtractPath: "/v1/faces/extract",
		MatchPath:   "/v1/faces/match",
		Timeout:     timeout,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client
}

var testImage = recognizer.Image{Data: []byte("\x89PNG fake"), Filename: "face.png", ContentType: "image/png"}

func TestExtractSendsImageAndParsesTemplate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/faces/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image part: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != string(testImage.Data) {
			t.Errorf("image bytes were not forwarded verbatim")
		}
		if header.Header.Get("Content-Type") != "image/png" || header.Filename != "face.png" {
			t.Errorf("unexpected part header: %v filename=%s", header.Header, header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"vector_base64":"QUJD"}}`)
	}, time.Second)

	result, err := client.Extract(context.Background(), testImage)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.TemplateBase64 != "QUJD" {
		t.Fatalf("unexpected template %q", result.TemplateBase64)
	}
}

func TestMatchSendsRegisteredFace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/faces/match" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.FormValue("registered_face"); got != "QUJD" {
			t.Errorf("unexpected registered_face %q", got)
		}
		_, _ = io.WriteString(w, `{"data":{"is_match":true,"distance":0.31,"confidence_percentage":92.5}}`)
	}, time.Second)

	result, err := client.Match(context.Background(), testImage, "QUJD")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !result.IsMatch || result.Distance != 0.31 || result.ConfidencePercent != 92.5 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestNonSuccessStatusCarriesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"No face detected in image"}`)
	}, time.Second)

	_, err := client.Extract(context.Background(), testImage)
	if !apperror.Is(err, apperror.KindRecognizer) {
		t.Fatalf("expected recognizer error, got %v", err)
	}
	if got := apperror.UserMessage(err, "fallback"); got != "No face detected in image" {
		t.Fatalf("expected upstream message verbatim, got %q", got)
	}
}

func TestNonSuccessStatusWithoutErrorUsesFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `<html>oops</html>`)
	}, time.Second)

	_, err := client.Match(context.Background(), testImage, "QUJD")
	if !apperror.Is(err, apperror.KindRecognizer) {
		t.Fatalf("expected recognizer error, got %v", err)
	}
	if got := apperror.UserMessage(err, ""); got != matchFallback {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestMalformedSuccessBodyIsRecognizerError(t *testing.T) {
	for _, body := range []string{`not json`, `{"data":null}`, `{"data":{"vector_base64":""}}`} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}, time.Second)

		_, err := client.Extract(context.Background(), testImage)
		if !apperror.Is(err, apperror.KindRecognizer) {
			t.Fatalf("body %q: expected recognizer error, got %v", body, err)
		}
	}
}

func TestTimeoutIsRecognizerError(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := client.Match(context.Background(), testImage, "QUJD")
	if !apperror.Is(err, apperror.KindRecognizer) {
		t.Fatalf("expected recognizer error on timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout message, got %v", err)
	}
}

func TestConnectionFailureIsInternal(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewRecognizerClient(config.RecognizerConfig{BaseURL: url, ExtractPath: "/x", MatchPath: "/y", Timeout: time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	_, err = client.Extract(context.Background(), testImage)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperror.KindOf(err) != apperror.KindInternal {
		t.Fatalf("expected internal error, got kind %v", apperror.KindOf(err))
	}
}

func TestNewRecognizerClientValidatesURL(t *testing.T) {
	for _, raw := range []string{"ftp://host", "http://", "::bad"} {
		if _, err := NewRecognizerClient(config.RecognizerConfig{BaseURL: raw, Timeout: time.Second}, zap.NewNop()); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
