package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	Duration   time.Duration
}

func (r *Response) JSON(target any) error {
	if len(r.Body) == 0 {
		return ErrEmptyResponseBody
	}

	if err := json.Unmarshal(r.Body, target); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}

	return nil
}

// ErrorResponse covers both the market-data envelope ({"status": {...}}) and plain
// {"message": "..."} error bodies.
//
//nolint:tagliatelle
type ErrorResponse struct {
	Message string `json:"message"`
	Status  *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func (e ErrorResponse) text() (string, int) {
	if e.Status != nil && e.Status.ErrorMessage != "" {
		return e.Status.ErrorMessage, e.Status.ErrorCode
	}

	return e.Message, 0
}
