package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
)

// Response es la unión Success/Error que devuelve el request builder:
// exactamente uno de Data (válido) o Err está presente.
type Response[T any] struct {
	Data T
	Err  *Error
}

func (r Response[T]) IsError() bool {
	return r.Err != nil
}

// Execute hace el request y decodifica el payload en T.
func Execute[T any](ctx context.Context, c *Client, req Request) Response[T] {
	body, nerr := c.Do(ctx, req)
	if nerr != nil {
		return Response[T]{Err: nerr}
	}

	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		return Response[T]{Err: &Error{
			Type:    ErrTypeParseError,
			Message: "error decoding response",
			Cause:   err,
		}}
	}
	return Response[T]{Data: data}
}

func Get[T any](ctx context.Context, c *Client, s site.Site, path string, params url.Values, enableCaching bool) Response[T] {
	return Execute[T](ctx, c, Request{
		Site:          s,
		Method:        http.MethodGet,
		Path:          path,
		Params:        params,
		EnableCaching: enableCaching,
	})
}

func Post[T any](ctx context.Context, c *Client, s site.Site, path string, body any) Response[T] {
	return Execute[T](ctx, c, Request{Site: s, Method: http.MethodPost, Path: path, Body: body})
}

func Put[T any](ctx context.Context, c *Client, s site.Site, path string, body any) Response[T] {
	return Execute[T](ctx, c, Request{Site: s, Method: http.MethodPut, Path: path, Body: body})
}

func Delete[T any](ctx context.Context, c *Client, s site.Site, path string, params url.Values) Response[T] {
	return Execute[T](ctx, c, Request{Site: s, Method: http.MethodDelete, Path: path, Params: params})
}
