package mozart

import (
	"context"
	"fmt"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/observability"
	"github.com/hysds/mozart-go/models"
	"github.com/hysds/mozart-go/pkg/poll"
	"github.com/rs/zerolog"
)

// Job An opaque handle to one submitted job instance. The handle holds
// no job state; every query is a live server lookup.
type Job struct {
	client *Client
	id     string
	tag    string
	logger zerolog.Logger
}

func (c *Client) newJob(id, tag string) *Job {
	return &Job{
		client: c,
		id:     id,
		tag:    tag,
		logger: c.logger.With().Str("job", id).Logger(),
	}
}

// ID The server-issued job id
func (j *Job) ID() string {
	return j.id
}

// Tag The tracking tag the job was submitted with, if known
func (j *Job) Tag() string {
	return j.tag
}

func (j *Job) String() string {
	return fmt.Sprintf("Mozart Job: <%s>", j.id)
}

// GetStatus Retrieves the job's current status
func (j *Job) GetStatus(ctx context.Context) (models.Status, error) {
	return j.client.getJobStatus(ctx, j.id)
}

// GetInfo Retrieves the full server-side job record
func (j *Job) GetInfo(ctx context.Context) (map[string]any, error) {
	return j.client.getJobInfo(ctx, j.id)
}

// GetGeneratedProducts Retrieves the staged output products; only
// meaningful once the job is terminal
func (j *Job) GetGeneratedProducts(ctx context.Context) ([]map[string]any, error) {
	return j.client.getGeneratedProducts(ctx, j.id)
}

// GetException The error message of a failed job. Fails with a state
// mismatch when the job's current status is not job-failed.
func (j *Job) GetException(ctx context.Context) (string, error) {
	return j.failureField(ctx, "error")
}

// GetTraceback The traceback of a failed job. Fails with a state
// mismatch when the job's current status is not job-failed.
func (j *Job) GetTraceback(ctx context.Context) (string, error) {
	return j.failureField(ctx, "traceback")
}

func (j *Job) failureField(ctx context.Context, field string) (string, error) {
	status, err := j.GetStatus(ctx)
	if err != nil {
		return "", err
	}
	if status != models.StatusFailed {
		return "", apierrors.NewStateMismatch(string(models.StatusFailed), string(status))
	}
	info, err := j.GetInfo(ctx)
	if err != nil {
		return "", err
	}
	value, ok := info[field].(string)
	if !ok {
		return "", apierrors.NewValidationf("job record for %s has no %s field", j.id, field)
	}
	return value, nil
}

// Revoke Submits a job revoking this job and returns a handle to the
// management job, not this one
func (j *Job) Revoke(ctx context.Context, opts LifecycleOptions) (*Job, error) {
	return j.client.submitLifecycleJob(ctx, operationRevoke, j.id, opts)
}

// Remove Submits a job purging this job's record and returns a handle
// to the management job, not this one
func (j *Job) Remove(ctx context.Context, opts LifecycleOptions) (*Job, error) {
	return j.client.submitLifecycleJob(ctx, operationPurge, j.id, opts)
}

// Retry Submits a job resubmitting this job and returns a handle to the
// management job. Requires the job's internal record id to be present
// in its info document.
func (j *Job) Retry(ctx context.Context, opts LifecycleOptions) (*Job, error) {
	return j.client.submitLifecycleJob(ctx, operationRetry, j.id, opts)
}

// WaitForCompletion Polls with the default cadence until the job
// reaches a terminal state. See WaitForCompletionWithPolicy.
func (j *Job) WaitForCompletion(ctx context.Context) (models.Status, error) {
	return j.WaitForCompletionWithPolicy(ctx, poll.Default())
}

// WaitForCompletionWithPolicy Polls the job's status under the given
// policy until a terminal state is observed, the context is cancelled,
// or the policy's ceiling elapses. Errors on individual status checks
// are transient: they are logged and the next tick retries.
func (j *Job) WaitForCompletionWithPolicy(ctx context.Context, policy poll.Policy) (models.Status, error) {
	var last models.Status
	err := policy.Wait(ctx, func(ctx context.Context) (bool, error) {
		observability.ObservePollTick()
		status, err := j.GetStatus(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false, context.Cause(ctx)
			}
			j.logger.Warn().Err(err).Msg("status check failed, retrying next tick")
			return false, nil
		}
		j.logger.Info().Str("status", status.String()).Msg("job status")
		last = status
		return status.IsTerminal(), nil
	})
	if err != nil {
		return "", err
	}
	return last, nil
}
