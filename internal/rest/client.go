// Package rest implements the HTTP layer shared by the Mozart and GRQ
// clients. All endpoints answer JSON; a 404 becomes a not-found error
// and every other non-success response a transport error, both
// carrying the raw response body.
package rest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/observability"
	"github.com/hysds/mozart-go/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 60 * time.Second

// Client Issues JSON requests against a HySDS cluster
type Client struct {
	base     *url.URL
	http     *http.Client
	username string
	password string
	logger   zerolog.Logger
}

// New Constructor. Credentials are attached only when the cluster is
// flagged as authenticated in the config.
func New(cfg *models.Config, env *models.Env) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Host, "/"))
	if err != nil {
		return nil, apierrors.NewValidationf("invalid host %q: %v", cfg.Host, err)
	}

	client := &Client{
		base: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				// Clusters commonly run with self-signed certificates.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		logger: log.Logger.With().Str("pkg", "rest").Logger(),
	}
	if cfg.Auth && env != nil {
		client.username = cfg.Username
		client.password = env.Password
	}
	return client, nil
}

// GetJSON Issues a GET and decodes the JSON response into out
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, query, nil, out)
}

// PostForm Issues a form-encoded POST and decodes the JSON response into out
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, nil, form, out)
}

// PostQuery Issues a POST whose arguments travel in the query string
func (c *Client) PostQuery(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, query, nil, out)
}

// DeleteJSON Issues a DELETE with query parameters and decodes the
// JSON response into out
func (c *Client) DeleteJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, form url.Values, out any) error {
	target := *c.base
	target.Path = strings.TrimRight(target.Path, "/") + "/" + strings.TrimLeft(endpoint, "/")
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	request, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return apierrors.NewUnknown(err)
	}
	if form != nil {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.username != "" {
		request.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	response, err := c.http.Do(request)
	if err != nil {
		observability.ObserveRequest(endpoint, 0, time.Since(start))
		return apierrors.NewUnknown(err)
	}
	defer func() { _ = response.Body.Close() }()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return apierrors.NewUnknown(fmt.Errorf("failed to read response from %s: %w", endpoint, err))
	}
	observability.ObserveRequest(endpoint, response.StatusCode, time.Since(start))
	c.logger.Debug().
		Str("method", method).
		Str("url", target.Redacted()).
		Int("status", response.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request completed")

	if response.StatusCode == http.StatusNotFound {
		return apierrors.NewNotFound(string(raw))
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return apierrors.NewTransport(response.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierrors.NewUnknown(fmt.Errorf("failed to decode response from %s: %w", endpoint, err))
	}
	return nil
}
