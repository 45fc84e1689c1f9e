package models

import "strings"

// Parameter origin classes declared by a HySDS IO schema
const (
	// FromValue The value is hardwired into the schema
	FromValue = "value"

	// FromSubmitter The value is supplied (or defaulted) by the submitter
	FromSubmitter = "submitter"

	// FromDatasetPrefix Origins starting with this prefix are extracted
	// from the input dataset, e.g. "dataset_jpath:_source.metadata.id"
	FromDatasetPrefix = "dataset_jpath"
)

// ParameterType Declared value type of a schema parameter
type ParameterType string

const (
	// TypeText Free-form string
	TypeText ParameterType = "text"

	// TypeNumber Integer or float
	TypeNumber ParameterType = "number"

	// TypeBoolean true/false
	TypeBoolean ParameterType = "boolean"

	// TypeEnum One of the declared enumerables
	TypeEnum ParameterType = "enum"

	// TypeObject JSON array or object
	TypeObject ParameterType = "object"
)

// Parameter One parameter descriptor of a job type's HySDS IO schema
type Parameter struct {
	Name        string        `json:"name"`
	From        string        `json:"from"`
	Type        ParameterType `json:"type,omitempty"`
	Default     any           `json:"default,omitempty"`
	Value       any           `json:"value,omitempty"`
	Optional    bool          `json:"optional,omitempty"`
	Enumerables []string      `json:"enumerables,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`

	// Extractor Name of a caller-registered extraction function applied
	// to the input dataset instead of the origin path. The wire field is
	// named after the upstream API; the value is never evaluated as code.
	Extractor string `json:"lambda,omitempty"`
}

// FromDataset Whether the parameter value is extracted from the input dataset
func (p Parameter) FromDataset() bool {
	return strings.HasPrefix(p.From, FromDatasetPrefix)
}

// HysdsIO A job type's parameter schema as returned by GRQ
type HysdsIO struct {
	ID               string      `json:"id,omitempty"`
	JobSpecification string      `json:"job-specification,omitempty"`
	Label            string      `json:"label,omitempty"`
	Params           []Parameter `json:"params"`
}

// JobTypeSummary One entry of the on-demand job type catalog
type JobTypeSummary struct {
	HysdsIO string `json:"hysds_io"`
	JobSpec string `json:"job_spec"`
	Label   string `json:"label,omitempty"`
}

// QueueList Queue discovery result for a job spec: a mapping of queue
// class to an ordered list of queue names
type QueueList map[string][]string

// Recommended The queues marked as recommended for the job spec
func (q QueueList) Recommended() []string {
	return q["recommended"]
}
