//nolint:ireturn
package httpclient

import (
	"context"
	"net/http"
)

func GetJSON[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return DoJSON[T](ctx, c, http.MethodGet, path, nil, opts...)
}

func PostJSON[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return DoJSON[T](ctx, c, http.MethodPost, path, body, opts...)
}

func PutJSON[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return DoJSON[T](ctx, c, http.MethodPut, path, body, opts...)
}

func DeleteJSON[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return DoJSON[T](ctx, c, http.MethodDelete, path, nil, opts...)
}

func DoJSON[T any](ctx context.Context, c *Client, method, path string, body any, opts ...RequestOption) (T, error) {
	var result T

	resp, err := c.Do(ctx, method, path, body, opts...)
	if err != nil {
		return result, err
	}

	err = resp.JSON(&result)

	return result, err
}
