package httpclient

import (
	"errors"
	"fmt"
)

var (
	ErrRequestFailed     = errors.New("httpclient: request failed")
	ErrServiceError      = errors.New("httpclient: service error")
	ErrRetriesExhausted  = errors.New("httpclient: retries exhausted")
	ErrRetryAborted      = errors.New("httpclient: retry aborted")
	ErrDecodeResponse    = errors.New("httpclient: failed to decode response")
	ErrCreateRequest     = errors.New("httpclient: failed to create request")
	ErrEncodeBody        = errors.New("httpclient: failed to encode request body")
	ErrRateLimitWait     = errors.New("httpclient: rate limiter wait failed")
	ErrResponseTooLarge  = errors.New("httpclient: response body too large")
	ErrEmptyResponseBody = errors.New("httpclient: empty response body")
)

type ServiceError struct {
	StatusCode int
	Message    string
	ErrorCode  int
	RequestID  string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("httpclient: service returned status %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("httpclient: service returned status %d", e.StatusCode)
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(target, ErrServiceError)
}

func (e *ServiceError) Unwrap() error {
	return ErrServiceError
}

func NewServiceError(statusCode int, message string, errorCode int, requestID string) *ServiceError {
	return &ServiceError{
		StatusCode: statusCode,
		Message:    message,
		ErrorCode:  errorCode,
		RequestID:  requestID,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}

	return nil, false
}
