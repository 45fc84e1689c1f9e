package mozart

import (
	"net/http/httptest"
	"testing"

	"github.com/hysds/mozart-go/internal/testserver"
	"github.com/hysds/mozart-go/models"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*testserver.Server, *Client) {
	t.Helper()
	ts := testserver.New()
	server := httptest.NewServer(ts.Engine())
	t.Cleanup(server.Close)
	client, err := New(&models.Config{Host: server.URL, Username: "tester"}, &models.Env{})
	require.NoError(t, err)
	return ts, client
}

func topsappSummary() models.JobTypeSummary {
	return models.JobTypeSummary{
		HysdsIO: "hysds-io-topsapp",
		JobSpec: "job-topsapp:v1.0",
		Label:   "TopsApp Interferogram",
	}
}

func topsappSchema() models.HysdsIO {
	return models.HysdsIO{
		ID:               "hysds-io-topsapp",
		JobSpecification: "job-topsapp:v1.0",
		Label:            "TopsApp Interferogram",
		Params: []models.Parameter{
			{Name: "project", From: models.FromValue, Value: "aria"},
			{Name: "threshold", From: models.FromSubmitter, Type: models.TypeNumber, Default: "0.5"},
			{Name: "dry_run", From: models.FromSubmitter, Type: models.TypeBoolean, Default: "true"},
			{Name: "scene_id", From: models.FromSubmitter},
			{Name: "notes", From: models.FromSubmitter, Optional: true},
			{Name: "dataset_id", From: "dataset_jpath:_id"},
			{Name: "orbit", From: "dataset_jpath:_source.metadata.orbit"},
		},
	}
}

func topsappQueues() models.QueueList {
	return models.QueueList{
		"queues":      {"factotum-job_worker-small", "factotum-job_worker-large"},
		"recommended": {"factotum-job_worker-small"},
	}
}

func addTopsapp(ts *testserver.Server) {
	ts.AddJobType(topsappSummary(), topsappSchema(), topsappQueues())
}
