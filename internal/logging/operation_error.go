package logging

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// OperationError tags an infrastructure failure with the step that produced it. The
// acting user travels as a log field and never reaches the message.
type OperationError struct {
	Operation string
	UserID    string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Operation)
	b.WriteString(" failed: ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fields renders the annotation for zap. An empty UserID is omitted.
func (e *OperationError) Fields() []zap.Field {
	if e == nil {
		return nil
	}
	fields := []zap.Field{zap.String("operation", e.Operation)}
	if e.UserID != "" {
		fields = append(fields, zap.String("user_id", e.UserID))
	}
	return fields
}

// NewOperationError returns nil for a nil err so callers can wrap unconditionally.
func NewOperationError(operation, userID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, UserID: userID, Err: err}
}

// ErrorFields returns zap fields for err plus the annotation of the outermost
// OperationError in its chain, if any.
func ErrorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		fields = append(fields, opErr.Fields()...)
	}
	return fields
}
