package mozart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/equinor/radix-common/utils/slice"
	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/extract"
	"github.com/hysds/mozart-go/internal/names"
	"github.com/hysds/mozart-go/models"
	"github.com/rs/zerolog"
)

// JobType One submittable job specification. A fresh JobType knows only
// its identity; Initialize resolves the parameter schema and queue list
// from the server before parameters can be bound or a job submitted.
type JobType struct {
	client *Client

	hysdsIO string
	jobSpec string
	label   string

	schema       *models.HysdsIO
	queues       models.QueueList
	defaultQueue string

	extractors *extract.Registry

	// Parameter bindings by class. The merge precedence at submission
	// is dataset < hardwired < input.
	hardwired map[string]any
	dataset   map[string]any
	input     map[string]any

	logger zerolog.Logger
}

// NewJobType Builds a job type handle from its identity
func (c *Client) NewJobType(hysdsIO, jobSpec string) (*JobType, error) {
	if hysdsIO == "" || jobSpec == "" {
		return nil, apierrors.NewValidation("both hysds_io and job_spec must be supplied")
	}
	return c.newJobType(models.JobTypeSummary{HysdsIO: hysdsIO, JobSpec: jobSpec}), nil
}

func (c *Client) newJobType(summary models.JobTypeSummary) *JobType {
	return &JobType{
		client:     c,
		hysdsIO:    summary.HysdsIO,
		jobSpec:    summary.JobSpec,
		label:      summary.Label,
		extractors: extract.NewRegistry(),
		hardwired:  map[string]any{},
		dataset:    map[string]any{},
		input:      map[string]any{},
		logger:     c.logger.With().Str("job_spec", summary.JobSpec).Logger(),
	}
}

// HysdsIO The schema id of the job type
func (t *JobType) HysdsIO() string {
	return t.hysdsIO
}

// JobSpec The versioned job identifier, format name:version
func (t *JobType) JobSpec() string {
	return t.jobSpec
}

// Label The display label of the job type, if any
func (t *JobType) Label() string {
	return t.label
}

func (t *JobType) String() string {
	if t.label != "" {
		return fmt.Sprintf("HySDS Job: %s (%s)", t.label, t.jobSpec)
	}
	return fmt.Sprintf("HySDS Job: %s", t.jobSpec)
}

// Initialized Whether the schema and queue list have been resolved
func (t *JobType) Initialized() bool {
	return t.schema != nil
}

// Initialize Resolves the parameter schema and the queue list from the
// server. Hardwired parameters are copied from the schema and submitter
// parameters are seeded with their defaults; calling Initialize again
// re-derives the same bindings.
func (t *JobType) Initialize(ctx context.Context) error {
	if err := t.retrieveSchema(ctx); err != nil {
		return err
	}
	return t.retrieveQueues(ctx)
}

func (t *JobType) retrieveSchema(ctx context.Context) error {
	query := url.Values{}
	query.Set("id", t.hysdsIO)
	var res hysdsIOResponse
	if err := t.client.rest.GetJSON(ctx, hysdsIOEndpoint, query, &res); err != nil {
		return err
	}
	t.schema = &res.Result

	hardwired := map[string]any{}
	input := map[string]any{}
	for _, p := range t.schema.Params {
		switch p.From {
		case models.FromValue:
			hardwired[p.Name] = p.Value
		case models.FromSubmitter:
			input[p.Name] = t.seedDefault(p)
		}
	}
	t.hardwired = hardwired
	t.input = input
	t.logger.Debug().
		Int("params", len(t.schema.Params)).
		Msg("parameter schema resolved")
	return nil
}

// seedDefault Coerces a schema default to the parameter's declared type.
// Numeric defaults given as text become numbers, boolean defaults given
// as text become booleans.
func (t *JobType) seedDefault(p models.Parameter) any {
	value := p.Default
	if value == nil {
		return nil
	}
	switch p.Type {
	case models.TypeNumber:
		if text, ok := value.(string); ok {
			number, err := strconv.ParseFloat(text, 64)
			if err != nil {
				t.logger.Warn().Str("param", p.Name).Str("default", text).Msg("numeric default is not parseable, keeping as text")
				return value
			}
			return number
		}
	case models.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return strings.EqualFold(fmt.Sprint(value), "true")
		}
	}
	return value
}

func (t *JobType) retrieveQueues(ctx context.Context) error {
	query := url.Values{}
	query.Set("id", t.jobSpec)
	var res queueListResponse
	if err := t.client.rest.GetJSON(ctx, queueListEndpoint, query, &res); err != nil {
		return err
	}
	t.queues = res.Result
	t.defaultQueue = ""
	if recommended := res.Result.Recommended(); len(recommended) > 0 {
		t.defaultQueue = recommended[0]
	}
	return nil
}

// Queues The resolved queue list and the default queue
func (t *JobType) Queues() (models.QueueList, string, error) {
	if t.queues == nil {
		return nil, "", apierrors.NewNotInitialized("job type " + t.jobSpec)
	}
	return t.queues, t.defaultQueue, nil
}

// Describe Renders the job type's tunable and dataset parameters
func (t *JobType) Describe() (string, error) {
	if t.schema == nil {
		return "", apierrors.NewNotInitialized("job type " + t.jobSpec)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Job Type: %s\n", t.schema.JobSpecification)
	if t.schema.Label != "" {
		fmt.Fprintf(&b, "Label: %s\n", t.schema.Label)
	}
	b.WriteString("\nTunable Parameters:\n")
	for _, p := range slice.FindAll(t.schema.Params, func(p models.Parameter) bool { return p.From == models.FromSubmitter }) {
		fmt.Fprintf(&b, "\tname: %s\n", p.Name)
		fmt.Fprintf(&b, "\ttype: %s\n", parameterType(p))
		if p.Placeholder != "" {
			fmt.Fprintf(&b, "\tdesc: %s\n", p.Placeholder)
		}
		if p.Type == models.TypeEnum {
			fmt.Fprintf(&b, "\tchoices: %s\n", strings.Join(p.Enumerables, ", "))
		}
		if p.Default != nil {
			fmt.Fprintf(&b, "\tdefault: %v\n", p.Default)
		}
		if p.Optional {
			fmt.Fprintf(&b, "\toptional: %v\n", p.Optional)
		}
		b.WriteString("\n")
	}
	b.WriteString("Dataset Parameters:\n")
	for _, p := range slice.FindAll(t.schema.Params, models.Parameter.FromDataset) {
		fmt.Fprintf(&b, "\tname: %s\n\n", p.Name)
	}
	return b.String(), nil
}

func parameterType(p models.Parameter) models.ParameterType {
	if p.Type == "" {
		return models.TypeText
	}
	return p.Type
}

// RegisterExtractor Registers a named dataset extraction function.
// Schema parameters referencing the name have their value computed by
// fn instead of the origin path walk.
func (t *JobType) RegisterExtractor(name string, fn extract.Func) {
	t.extractors.Register(name, fn)
}

// SetInputParams Shallow-merges the supplied values into the submitter
// parameters, overwriting same-named entries; defaults seeded by
// Initialize are preserved for keys not supplied.
func (t *JobType) SetInputParams(params map[string]any) error {
	if params == nil {
		return apierrors.NewValidation("params must be supplied")
	}
	t.mergeInput(params)
	return nil
}

// mergeInput Key-shallow merge: a colliding key replaces the whole
// previous value, object values included. Nested maps are never
// blended.
func (t *JobType) mergeInput(params map[string]any) {
	for name, value := range params {
		t.input[name] = value
	}
}

// SetInputDataset Binds every dataset-derived schema parameter to a
// value extracted from the supplied dataset
func (t *JobType) SetInputDataset(dataset map[string]any) error {
	if dataset == nil {
		return apierrors.NewValidation("dataset must be supplied")
	}
	if t.schema == nil {
		return apierrors.NewNotInitialized("job type " + t.jobSpec)
	}

	bound := map[string]any{}
	for _, p := range slice.FindAll(t.schema.Params, models.Parameter.FromDataset) {
		if p.Extractor != "" {
			fn, ok := t.extractors.Lookup(p.Extractor)
			if !ok {
				return apierrors.NewValidationf("parameter %q references unregistered extractor %q", p.Name, p.Extractor)
			}
			value, err := fn(dataset)
			if err != nil {
				return apierrors.NewValidationf("extractor %q failed for parameter %q: %v", p.Extractor, p.Name, err)
			}
			bound[p.Name] = value
			continue
		}
		value, err := extract.Value(p.From, dataset)
		if err != nil {
			return apierrors.NewValidationf("parameter %q: %v", p.Name, err)
		}
		bound[p.Name] = value
	}
	t.dataset = bound
	return nil
}

// HardwiredParams The fixed values copied from the schema
func (t *JobType) HardwiredParams() map[string]any {
	return t.hardwired
}

// DatasetParams The values extracted by SetInputDataset
func (t *JobType) DatasetParams() map[string]any {
	return t.dataset
}

// InputParams The submitter parameters, defaults included
func (t *JobType) InputParams() map[string]any {
	return t.input
}

// mergedParams The submission payload: the key-shallow union of
// dataset, hardwired and input parameters, later classes overwriting
// earlier ones on name collision.
func (t *JobType) mergedParams() map[string]any {
	merged := map[string]any{}
	for _, layer := range []map[string]any{t.dataset, t.hardwired, t.input} {
		for name, value := range layer {
			merged[name] = value
		}
	}
	return merged
}

func (t *JobType) validateRequiredParams() error {
	if t.schema == nil {
		return apierrors.NewNotInitialized("job type " + t.jobSpec)
	}
	for _, p := range t.schema.Params {
		if p.From != models.FromSubmitter || p.Optional || p.Default != nil {
			continue
		}
		if value, ok := t.input[p.Name]; !ok || value == nil {
			return apierrors.NewValidationf("parameter %q is required", p.Name)
		}
	}
	return nil
}

// SubmitOptions Optional settings for SubmitJob
type SubmitOptions struct {
	// Queue Target queue; the job type's default queue when empty
	Queue string

	// Tag Tracking tag; generated when empty
	Tag string

	// Priority Queue priority, clamped into [0,9]
	Priority int
}

// SubmitJob Submits one job instance with the merged parameter payload
// and returns a handle to it. Deduplication is always disabled.
func (t *JobType) SubmitJob(ctx context.Context, opts SubmitOptions) (*Job, error) {
	if err := t.validateRequiredParams(); err != nil {
		return nil, err
	}
	queue := opts.Queue
	if queue == "" {
		queue = t.defaultQueue
	}
	if queue == "" {
		return nil, apierrors.NewValidation("queue must be supplied")
	}
	tag := opts.Tag
	if tag == "" {
		tag = names.NewTag("submit_job")
	}

	payload, err := json.Marshal(t.mergedParams())
	if err != nil {
		return nil, apierrors.NewUnknown(err)
	}
	tags, err := json.Marshal([]string{tag})
	if err != nil {
		return nil, apierrors.NewUnknown(err)
	}
	jobName, _, _ := strings.Cut(t.jobSpec, ":")

	form := url.Values{}
	form.Set("queue", queue)
	form.Set("priority", strconv.Itoa(normalizePriority(opts.Priority, t.logger)))
	form.Set("job_name", jobName)
	form.Set("tags", string(tags))
	form.Set("type", t.jobSpec)
	form.Set("params", string(payload))
	form.Set("enable_dedup", "false")

	var res submitResponse
	if err := t.client.rest.PostForm(ctx, jobSubmitEndpoint, form, &res); err != nil {
		return nil, err
	}
	t.logger.Info().Str("job", res.Result).Str("queue", queue).Str("tag", tag).Msg("job submitted")
	return t.client.newJob(res.Result, tag), nil
}
