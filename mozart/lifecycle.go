package mozart

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/names"
	"github.com/hysds/mozart-go/models"
)

// Operations of the lifecycle-management job types.
const (
	operationPurge  = "purge"
	operationRevoke = "revoke"
	operationRetry  = "retry"
)

// LifecycleOptions Optional settings for Revoke, Remove and Retry
type LifecycleOptions struct {
	// Tag Tracking tag for the lifecycle job; generated when empty
	Tag string

	// Priority Queue priority of the lifecycle job, clamped into [0,9]
	Priority int

	// Version Version of the lifecycle job type; DefaultLifecycleVersion
	// when empty
	Version string
}

func (c *Client) getJobStatus(ctx context.Context, id string) (models.Status, error) {
	query := url.Values{}
	query.Set("id", id)
	var res statusResponse
	if err := c.rest.GetJSON(ctx, jobStatusEndpoint, query, &res); err != nil {
		return "", err
	}
	return res.Status, nil
}

func (c *Client) getJobInfo(ctx context.Context, id string) (map[string]any, error) {
	query := url.Values{}
	query.Set("id", id)
	var res infoResponse
	if err := c.rest.GetJSON(ctx, jobInfoEndpoint, query, &res); err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (c *Client) getGeneratedProducts(ctx context.Context, id string) ([]map[string]any, error) {
	var res productsResponse
	if err := c.rest.GetJSON(ctx, jobProductsEndpoint+"/"+id, nil, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

// submitLifecycleJob Submits a purge, revoke or retry job targeting the
// job with the given id, and returns a handle to the management job.
func (c *Client) submitLifecycleJob(ctx context.Context, operation, id string, opts LifecycleOptions) (*Job, error) {
	if id == "" {
		return nil, apierrors.NewValidation("job id must be supplied")
	}

	targetID := id
	if operation == operationRetry {
		// The retry job type resolves the job through its internal
		// record id rather than the submission id.
		recordID, err := c.jobRecordID(ctx, id)
		if err != nil {
			return nil, err
		}
		targetID = recordID
	}

	tag := opts.Tag
	if tag == "" {
		tag = names.NewTag(operation)
	}
	version := opts.Version
	if version == "" {
		version = DefaultLifecycleVersion
	}
	jobName := PurgeJobName
	if operation == operationRetry {
		jobName = RetryJobName
	}

	params := map[string]any{
		"query": map[string]any{
			"query": map[string]any{
				"bool": map[string]any{
					"must": []any{
						map[string]any{"term": map[string]any{"_id": targetID}},
					},
				},
			},
		},
		"operation": operation,
		"component": "mozart",
	}
	serialized, err := json.Marshal(params)
	if err != nil {
		return nil, apierrors.NewUnknown(err)
	}
	tags, err := json.Marshal([]string{tag})
	if err != nil {
		return nil, apierrors.NewUnknown(err)
	}

	form := url.Values{}
	form.Set("queue", SystemJobsQueue)
	form.Set("priority", strconv.Itoa(normalizePriority(opts.Priority, c.logger)))
	form.Set("job_name", jobName)
	form.Set("tags", string(tags))
	form.Set("type", jobName+":"+version)
	form.Set("params", string(serialized))
	form.Set("enable_dedup", "false")

	var res submitResponse
	if err := c.rest.PostForm(ctx, jobSubmitEndpoint, form, &res); err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("operation", operation).
		Str("target", id).
		Str("job", res.Result).
		Msg("lifecycle job submitted")
	return c.newJob(res.Result, tag), nil
}

// jobRecordID Reads the internal record id out of a job's info document
func (c *Client) jobRecordID(ctx context.Context, id string) (string, error) {
	info, err := c.getJobInfo(ctx, id)
	if err != nil {
		return "", err
	}
	job, ok := info["job"].(map[string]any)
	if !ok {
		return "", apierrors.NewValidationf("job record for %s has no job document", id)
	}
	jobInfo, ok := job["job_info"].(map[string]any)
	if !ok {
		return "", apierrors.NewValidationf("job record for %s has no job_info document", id)
	}
	recordID, ok := jobInfo["id"].(string)
	if !ok || recordID == "" {
		return "", apierrors.NewValidationf("job record for %s has no internal record id", id)
	}
	return recordID, nil
}
