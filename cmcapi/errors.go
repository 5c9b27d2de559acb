package cmcapi

import (
	"errors"
	"fmt"

	"github.com/andyle182810/cryptoqa/httpclient"
)

var (
	ErrAPIStatus       = errors.New("cmcapi: api returned an error status")
	ErrInvalidPayload  = errors.New("cmcapi: invalid payload")
	ErrInvalidArgument = errors.New("cmcapi: invalid argument")
	ErrMissingData     = errors.New("cmcapi: response carries no data")
)

// APIError is a non-zero status.error_code inside an otherwise successful response.
type APIError struct {
	ErrorCode   int
	Message     string
	CreditCount int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cmcapi: api error %d: %s", e.ErrorCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return errors.Is(target, ErrAPIStatus)
}

func (e *APIError) Unwrap() error {
	return ErrAPIStatus
}

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// ErrorCode extracts the API error code from either an in-band status or an
// HTTP error envelope. It returns 0 when err carries neither.
func ErrorCode(err error) int {
	if apiErr, ok := IsAPIError(err); ok {
		return apiErr.ErrorCode
	}

	if svcErr, ok := httpclient.IsServiceError(err); ok {
		return svcErr.ErrorCode
	}

	return 0
}
