package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("user not found"), http.StatusNotFound},
		{"conflict", Conflict("face already enrolled"), http.StatusConflict},
		{"forbidden", Forbidden("face not enrolled"), http.StatusForbidden},
		{"unauthorized", Unauthorized("face does not match"), http.StatusUnauthorized},
		{"recognizer", Recognizer("no face detected"), http.StatusBadRequest},
		{"bad request", BadRequest("invalid email"), http.StatusBadRequest},
		{"decode", Wrap(KindDecode, errors.New("illegal base64"), "malformed template"), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("repository: %w", Conflict("duplicate")), http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, got)
			}
		})
	}
}

func TestErrorRendersKindPrefix(t *testing.T) {
	err := Conflict("face for user %s already enrolled", "u1")
	if got := err.Error(); got != "Conflict: face for user u1 already enrolled" {
		t.Fatalf("unexpected failure string: %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Forbidden("enroll first"), "fallback"); got != "enroll first" {
		t.Fatalf("expected typed message, got %q", got)
	}
	if got := UserMessage(errors.New("Flask: no face detected"), "fallback"); got != "no face detected" {
		t.Fatalf("expected split message, got %q", got)
	}
	if got := UserMessage(errors.New("connection reset"), "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := UserMessage(Wrap(KindInternal, errors.New("pq: password leaked"), "db down"), "fallback"); got != "fallback" {
		t.Fatalf("internal detail must not leak, got %q", got)
	}
	if got := UserMessage(nil, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for nil, got %q", got)
	}
}
