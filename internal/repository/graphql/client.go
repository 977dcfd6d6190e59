// Package graphql talks to the media library's GraphQL API: progress records, session heartbeats and forwarded
// engagement events.
package graphql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/machinebox/graphql"

	"github.com/PizzaHomicide/haven/internal/log"
)

// Client is the generic client for making queries to the library API
type Client struct {
	client    *graphql.Client
	authToken string
}

// Option configures a Client
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient replaces the default http client
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// NewClient creates a client for the given endpoint.  The token is optional; local libraries often run without auth.
func NewClient(endpoint, authToken string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("graphql endpoint is empty")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var clientOpts []graphql.ClientOption
	if o.httpClient != nil {
		clientOpts = append(clientOpts, graphql.WithHTTPClient(o.httpClient))
	}

	client := graphql.NewClient(endpoint, clientOpts...)
	client.Log = func(s string) { log.Trace("graphql", "message", s) }

	return &Client{
		client:    client,
		authToken: authToken,
	}, nil
}

// Query runs a query or mutation.  Failures to reach the API are returned as NetworkError.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, result any) error {
	req := graphql.NewRequest(query)

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	for key, value := range variables {
		req.Var(key, value)
	}

	if err := c.client.Run(ctx, req, result); err != nil {
		if isNetworkError(err) {
			return NetworkError{Err: err}
		}
		return err
	}
	return nil
}

// NetworkError means the API could not be reached, as opposed to the API rejecting the request
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "i/o timeout")
}
