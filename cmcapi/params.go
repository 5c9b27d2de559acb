package cmcapi

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/andyle182810/cryptoqa/validator"
)

func (c *Client) checkArgs(params any) error {
	if err := c.validator.Validate(params); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return nil
}

func (c *Client) checkConvert(convert string) error {
	if convert == "" {
		return nil
	}

	return c.checkArgs(struct {
		Convert string `json:"convert" validate:"currency"`
	}{Convert: convert})
}

func checkLimit(limit int) error {
	if limit < MinLimit || limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between %d and %d, got %d", ErrInvalidArgument, MinLimit, MaxLimit, limit)
	}

	return nil
}

func convertOrDefault(convert string) string {
	if convert == "" {
		return DefaultConvert
	}

	return convert
}

// normalizeSymbols upper-cases and de-duplicates symbols, keeping first-seen order.
func normalizeSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: at least one symbol is required", ErrInvalidArgument)
	}

	v := validator.Payload()
	out := make([]string, 0, len(symbols))

	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))

		err := v.Validate(struct {
			Symbol string `json:"symbol" validate:"symbol"`
		}{Symbol: symbol})
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidArgument, raw, err)
		}

		if !slices.Contains(out, symbol) {
			out = append(out, symbol)
		}
	}

	return out, nil
}

func joinIDs(ids []int) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: at least one id is required", ErrInvalidArgument)
	}

	parts := make([]string, 0, len(ids))

	for _, id := range ids {
		if id <= 0 {
			return "", fmt.Errorf("%w: id must be positive, got %d", ErrInvalidArgument, id)
		}

		parts = append(parts, strconv.Itoa(id))
	}

	return strings.Join(parts, ","), nil
}

func validateEach[T any](v *validator.Validator, what string, records map[string]T) error {
	var errs []error

	for key, record := range records {
		if err := v.Validate(record); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, what, errors.Join(errs...))
	}

	return nil
}
