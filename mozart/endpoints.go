package mozart

import "github.com/hysds/mozart-go/models"

// REST endpoints of the Mozart and GRQ APIs. Paths are the wire
// contract and must not change.
const (
	onDemandEndpoint    = "grq/api/v0.1/grq/on-demand"
	hysdsIOEndpoint     = "grq/api/v0.1/hysds_io/type"
	jobParamsEndpoint   = "grq/api/v0.1/grq/job-params"
	queueListEndpoint   = "mozart/api/v0.1/queue/list"
	jobSubmitEndpoint   = "mozart/api/v0.1/job/submit"
	jobStatusEndpoint   = "mozart/api/v0.1/job/status"
	jobInfoEndpoint     = "mozart/api/v0.1/job/info"
	jobProductsEndpoint = "mozart/api/v0.1/job/products"
	userJobsEndpoint    = "mozart/api/v0.1/job/user"
)

// Lifecycle-management job types submitted by Revoke, Remove and Retry.
const (
	// PurgeJobName Job type that removes or revokes an existing job record
	PurgeJobName = "job-lw-mozart-purge"

	// RetryJobName Job type that resubmits an existing job
	RetryJobName = "job-lw-mozart-retry"

	// DefaultLifecycleVersion Version of the lifecycle job types used
	// when the caller supplies none
	DefaultLifecycleVersion = "v1.0.5"

	// SystemJobsQueue Queue the lifecycle jobs are routed through
	SystemJobsQueue = "system-jobs-queue"
)

const (
	minPriority     = 0
	maxPriority     = 9
	defaultPriority = 5

	// listPageSize Page size of the user job listing
	listPageSize = 100
)

type statusResponse struct {
	Success bool          `json:"success"`
	Status  models.Status `json:"status"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
}

type infoResponse struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result"`
}

type productsResponse struct {
	Success bool             `json:"success"`
	Results []map[string]any `json:"results"`
}

type catalogResponse struct {
	Success bool                    `json:"success"`
	Result  []models.JobTypeSummary `json:"result"`
}

type jobTypeResponse struct {
	Success bool                  `json:"success"`
	Result  models.JobTypeSummary `json:"result"`
}

type hysdsIOResponse struct {
	Success bool           `json:"success"`
	Result  models.HysdsIO `json:"result"`
}

type queueListResponse struct {
	Success bool             `json:"success"`
	Result  models.QueueList `json:"result"`
}

type jobParamsResponse struct {
	Success bool               `json:"success"`
	Params  []models.Parameter `json:"params"`
}

type userJobsResponse struct {
	Success bool             `json:"success"`
	Result  []map[string]any `json:"result"`
}
