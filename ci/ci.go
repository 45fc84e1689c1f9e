// Package ci wraps the cluster's continuous-integration endpoints:
// registering a repository's job in the build system and driving its
// builds.
package ci

import (
	"context"
	"net/url"
	"strconv"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/rest"
	"github.com/hysds/mozart-go/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	jobBuilderEndpoint = "mozart/api/ci/job-builder"
	registerEndpoint   = "mozart/api/ci/register"
	buildEndpoint      = "mozart/api/ci/build"
)

// Client Drives the build registration of one repository and branch
type Client struct {
	rest   *rest.Client
	repo   string
	branch string
	logger zerolog.Logger
}

// New Constructor; repo is the HTTPS git url and is required, branch is
// optional
func New(cfg *models.Config, env *models.Env, repo, branch string) (*Client, error) {
	if repo == "" {
		return nil, apierrors.NewValidation("repo must be supplied")
	}
	restClient, err := rest.New(cfg, env)
	if err != nil {
		return nil, err
	}
	return &Client{
		rest:   restClient,
		repo:   repo,
		branch: branch,
		logger: log.Logger.With().Str("pkg", "ci").Str("repo", repo).Logger(),
	}, nil
}

func (c *Client) repoQuery() url.Values {
	query := url.Values{}
	query.Set("repo", c.repo)
	if c.branch != "" {
		query.Set("branch", c.branch)
	}
	return query
}

// Exists Whether the repository's job is registered in the build system
func (c *Client) Exists(ctx context.Context) (bool, error) {
	var res struct {
		Success bool `json:"success"`
	}
	if err := c.rest.GetJSON(ctx, jobBuilderEndpoint, c.repoQuery(), &res); err != nil {
		return false, err
	}
	return res.Success, nil
}

// Register Registers the repository's job in the build system
func (c *Client) Register(ctx context.Context) error {
	if err := c.rest.PostForm(ctx, registerEndpoint, c.repoQuery(), nil); err != nil {
		return err
	}
	c.logger.Info().Msg("build job registered")
	return nil
}

// Unregister Deletes the repository's job from the build system
func (c *Client) Unregister(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	if err := c.rest.DeleteJSON(ctx, registerEndpoint, c.repoQuery(), &res); err != nil {
		return nil, err
	}
	c.logger.Info().Msg("build job unregistered")
	return res, nil
}

// SubmitBuild Starts a build of the registered job
func (c *Client) SubmitBuild(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	if err := c.rest.PostQuery(ctx, jobBuilderEndpoint, c.repoQuery(), &res); err != nil {
		return nil, err
	}
	return res, nil
}

// BuildStatus Retrieves a build's status; a nil buildNumber means the
// latest build
func (c *Client) BuildStatus(ctx context.Context, buildNumber *int) (map[string]any, error) {
	query := c.repoQuery()
	if buildNumber != nil {
		query.Set("build_number", strconv.Itoa(*buildNumber))
	}
	var res map[string]any
	if err := c.rest.GetJSON(ctx, buildEndpoint, query, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// StopBuild Stops the latest build
func (c *Client) StopBuild(ctx context.Context) (map[string]any, error) {
	var res map[string]any
	if err := c.rest.DeleteJSON(ctx, jobBuilderEndpoint, c.repoQuery(), &res); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteBuild Deletes a stopped or finished build; a nil buildNumber
// means the latest build
func (c *Client) DeleteBuild(ctx context.Context, buildNumber *int) (map[string]any, error) {
	query := c.repoQuery()
	if buildNumber != nil {
		query.Set("build_number", strconv.Itoa(*buildNumber))
	}
	var res map[string]any
	if err := c.rest.DeleteJSON(ctx, buildEndpoint, query, &res); err != nil {
		return nil, err
	}
	return res, nil
}
