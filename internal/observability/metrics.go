package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/face-attendance/internal/apperror"
)

var (
	FaceEnrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "face_enrollments_total",
		Help:      "Face enrollment attempts by result",
	}, []string{"result"})

	CheckInVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "checkin_verifications_total",
		Help:      "Face check-in verification attempts by result",
	}, []string{"result"})

	RecognizerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "recognizer_request_duration_seconds",
		Help:      "Duration of calls to the external face recognition service",
		Buckets:   prometheus.ExponentialBuckets(0.025, 2, 10),
	}, []string{"operation", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// ObserveRecognizerCall records one recognizer round trip.
func ObserveRecognizerCall(operation string, d time.Duration, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case apperror.Is(err, apperror.KindRecognizer):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	RecognizerRequestDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// ResultLabel turns a workflow error into a low cardinality metric label.
func ResultLabel(err error, success string) string {
	if err == nil {
		return success
	}
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return "not_found"
	case apperror.KindConflict:
		return "conflict"
	case apperror.KindForbidden:
		return "forbidden"
	case apperror.KindUnauthorized:
		return "no_match"
	case apperror.KindRecognizer:
		return "recognizer_rejected"
	default:
		return "error"
	}
}
