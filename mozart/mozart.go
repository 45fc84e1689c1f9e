// Package mozart is a client for a HySDS-style job-orchestration
// platform. The Client is the root entry point: it discovers submittable
// job types, lists a user's jobs, and hands out JobType and Job handles.
package mozart

import (
	"context"
	"net/url"
	"strconv"
	"time"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/rest"
	"github.com/hysds/mozart-go/models"
	"github.com/hysds/mozart-go/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client Root entry point to a HySDS cluster
type Client struct {
	rest   *rest.Client
	cfg    *models.Config
	logger zerolog.Logger
}

// New Constructor of the cluster client
func New(cfg *models.Config, env *models.Env) (*Client, error) {
	restClient, err := rest.New(cfg, env)
	if err != nil {
		return nil, err
	}
	return &Client{
		rest:   restClient,
		cfg:    cfg,
		logger: log.Logger.With().Str("pkg", "mozart").Logger(),
	}, nil
}

// NewFromConfigFile Loads a config file and builds a client. An empty
// path falls back to the MOZART_CONFIG env var, then the default
// location.
func NewFromConfigFile(path string) (*Client, error) {
	env := models.NewEnv()
	if path == "" {
		path = env.ConfigFile
	}
	cfg, err := models.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, env)
}

// GetJobTypes Retrieves the on-demand job type catalog, keyed by job
// spec. The returned job types are uninitialized.
func (c *Client) GetJobTypes(ctx context.Context) (map[string]*JobType, error) {
	var res catalogResponse
	if err := c.rest.GetJSON(ctx, onDemandEndpoint, nil, &res); err != nil {
		return nil, err
	}
	jobTypes := make(map[string]*JobType, len(res.Result))
	for _, summary := range res.Result {
		jobTypes[summary.JobSpec] = c.newJobType(summary)
	}
	return jobTypes, nil
}

// GetJobType Retrieves a single catalog entry by hysds_io id. The
// returned job type is uninitialized.
func (c *Client) GetJobType(ctx context.Context, id string) (*JobType, error) {
	query := url.Values{}
	query.Set("id", id)
	var res jobTypeResponse
	if err := c.rest.GetJSON(ctx, onDemandEndpoint, query, &res); err != nil {
		return nil, err
	}
	return c.newJobType(res.Result), nil
}

// GetQueue Retrieves the queue list for a job spec
func (c *Client) GetQueue(ctx context.Context, jobSpec string) (models.QueueList, error) {
	query := url.Values{}
	query.Set("id", jobSpec)
	var res queueListResponse
	if err := c.rest.GetJSON(ctx, queueListEndpoint, query, &res); err != nil {
		return nil, err
	}
	return res.Result, nil
}

// GetJobParams Retrieves the default parameter descriptors for a job spec
func (c *Client) GetJobParams(ctx context.Context, jobSpec string) ([]models.Parameter, error) {
	query := url.Values{}
	query.Set("job_type", jobSpec)
	var res jobParamsResponse
	if err := c.rest.GetJSON(ctx, jobParamsEndpoint, query, &res); err != nil {
		return nil, err
	}
	return res.Params, nil
}

// GetJobByID Builds a handle to an already-submitted job. No request is
// issued; all queries on the handle are live lookups.
func (c *Client) GetJobByID(id string) *Job {
	return c.newJob(id, "")
}

// GetJobStatus Retrieves the status of a job by id
func (c *Client) GetJobStatus(ctx context.Context, id string) (models.Status, error) {
	return c.getJobStatus(ctx, id)
}

// GetJobInfo Retrieves the full job record by id
func (c *Client) GetJobInfo(ctx context.Context, id string) (map[string]any, error) {
	return c.getJobInfo(ctx, id)
}

// GetGeneratedProducts Retrieves the staged products of a job by id
func (c *Client) GetGeneratedProducts(ctx context.Context, id string) ([]map[string]any, error) {
	return c.getGeneratedProducts(ctx, id)
}

// RevokeJob Submits a job revoking the job with the given id
func (c *Client) RevokeJob(ctx context.Context, id string, opts LifecycleOptions) (*Job, error) {
	return c.submitLifecycleJob(ctx, operationRevoke, id, opts)
}

// RemoveJob Submits a job purging the record of the job with the given id
func (c *Client) RemoveJob(ctx context.Context, id string, opts LifecycleOptions) (*Job, error) {
	return c.submitLifecycleJob(ctx, operationPurge, id, opts)
}

// JobListFilter Filters for the per-user job listing. StartTime and
// EndTime accept a time.Time or a pre-formatted timestamp string.
type JobListFilter struct {
	Tag       string
	JobType   string
	Queue     string
	Priority  *int
	Status    models.Status
	StartTime any
	EndTime   any
}

// GetJobs Lists the config user's submitted jobs matching the filter,
// paginating until the server returns an empty page
func (c *Client) GetJobs(ctx context.Context, filter JobListFilter) (*JobSet, error) {
	if c.cfg.Username == "" {
		return nil, apierrors.NewValidation("username must be set in the config to list jobs")
	}
	query, err := c.buildListQuery(filter)
	if err != nil {
		return nil, err
	}

	jobSet := c.NewJobSet()
	endpoint := userJobsEndpoint + "/" + c.cfg.Username
	for offset := 0; ; offset += listPageSize {
		query.Set("page_size", strconv.Itoa(listPageSize))
		query.Set("offset", strconv.Itoa(offset))

		var res userJobsResponse
		if err := c.rest.GetJSON(ctx, endpoint, query, &res); err != nil {
			return nil, err
		}
		if len(res.Result) == 0 {
			break
		}
		for _, record := range res.Result {
			id, ok := record["id"].(string)
			if !ok || id == "" {
				c.logger.Warn().Interface("record", record).Msg("job record without id, skipping")
				continue
			}
			tag, _ := record["tag"].(string)
			if err := jobSet.Append(c.newJob(id, tag)); err != nil {
				return nil, err
			}
		}
	}
	c.logger.Debug().Int("jobs", jobSet.Len()).Msg("job listing collected")
	return jobSet, nil
}

func (c *Client) buildListQuery(filter JobListFilter) (url.Values, error) {
	query := url.Values{}
	if filter.Tag != "" {
		query.Set("tag", filter.Tag)
	}
	if filter.JobType != "" {
		query.Set("job_type", filter.JobType)
	}
	if filter.Queue != "" {
		query.Set("queue", filter.Queue)
	}
	if filter.Priority != nil {
		query.Set("priority", strconv.Itoa(normalizePriority(*filter.Priority, c.logger)))
	}
	if filter.Status != "" {
		if _, err := models.ParseStatus(string(filter.Status)); err != nil {
			return nil, apierrors.NewValidation(err.Error())
		}
		query.Set("status", string(filter.Status))
	}
	startTime, err := formatTimeFilter(filter.StartTime)
	if err != nil {
		return nil, err
	}
	if startTime != "" {
		query.Set("start_time", startTime)
	}
	endTime, err := formatTimeFilter(filter.EndTime)
	if err != nil {
		return nil, err
	}
	if endTime != "" {
		query.Set("end_time", endTime)
	}
	return query, nil
}

func formatTimeFilter(value any) (string, error) {
	switch t := value.(type) {
	case nil:
		return "", nil
	case string:
		if t == "" {
			return "", nil
		}
		if _, err := utils.ParseTimestamp(t); err != nil {
			return "", apierrors.NewValidationf("invalid time filter %q: %v", t, err)
		}
		return t, nil
	case time.Time:
		return utils.FormatTimestamp(t), nil
	case *time.Time:
		if t == nil {
			return "", nil
		}
		return utils.FormatTimestamp(*t), nil
	default:
		return "", apierrors.NewValidationf("time filter must be a string or time.Time, got %T", value)
	}
}

// normalizePriority Clamps a priority into [0,9]; out-of-range values
// fall back to the default with a warning.
func normalizePriority(priority int, logger zerolog.Logger) int {
	if priority < minPriority || priority > maxPriority {
		logger.Warn().Int("priority", priority).Msgf("priority not in range [0-9], defaulting to %d", defaultPriority)
		return defaultPriority
	}
	return priority
}
