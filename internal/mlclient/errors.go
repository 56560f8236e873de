package mlclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyResponse — сервис ответил 200, но тело не разобрать
var ErrEmptyResponse = errors.New("invalid response from ML service")

// ThrottleError — сервис попросил подождать (429 + Retry-After)
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// StatusError — любой ответ кроме 200
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ML service returned error: HTTP %d", e.Code)
}

// retryable — 4xx (кроме 429) повторять бессмысленно
func retryable(err error) bool {
	var te *ThrottleError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}
