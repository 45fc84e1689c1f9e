package mozart

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/testserver"
	"github.com/hysds/mozart-go/models"
	"github.com/hysds/mozart-go/pkg/poll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() poll.Policy {
	return poll.Policy{InitialDelay: time.Millisecond, Backoff: poll.Fixed(time.Millisecond)}
}

func Test_Job_queries(t *testing.T) {
	ts, client := newTestClient(t)
	ts.AddJob("job-1", &testserver.JobState{
		Statuses: []models.Status{models.StatusStarted},
		Info:     map[string]any{"status": "job-started", "job_queue": "factotum-job_worker-small"},
		Products: []map[string]any{{"id": "S1-GUNW-D-R-087", "urls": []any{"s3://bucket/S1-GUNW-D-R-087"}}},
	})
	job := client.GetJobByID("job-1")

	t.Run("status", func(t *testing.T) {
		status, err := job.GetStatus(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.StatusStarted, status)
	})

	t.Run("info", func(t *testing.T) {
		info, err := job.GetInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "factotum-job_worker-small", info["job_queue"])
	})

	t.Run("products", func(t *testing.T) {
		products, err := job.GetGeneratedProducts(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "S1-GUNW-D-R-087", products[0]["id"])
	})

	t.Run("unknown job is a not-found error", func(t *testing.T) {
		_, err := client.GetJobByID("job-missing").GetStatus(context.Background())
		require.Error(t, err)
		assert.Equal(t, apierrors.StatusReasonNotFound, apierrors.ReasonForError(err))
	})
}

func Test_Job_failureFields(t *testing.T) {
	t.Run("failed job exposes error and traceback", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{
			Statuses: []models.Status{models.StatusFailed},
			Info: map[string]any{
				"error":     "step tropo failed",
				"traceback": "Traceback (most recent call last): ...",
			},
		})
		job := client.GetJobByID("job-1")

		exception, err := job.GetException(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "step tropo failed", exception)

		traceback, err := job.GetTraceback(context.Background())
		require.NoError(t, err)
		assert.Contains(t, traceback, "Traceback")
	})

	t.Run("non failed job is a state mismatch", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{Statuses: []models.Status{models.StatusCompleted}})
		job := client.GetJobByID("job-1")

		_, err := job.GetException(context.Background())
		require.Error(t, err)
		assert.Equal(t, apierrors.StatusReasonStateMismatch, apierrors.ReasonForError(err))
	})

	t.Run("failed job without the field", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{
			Statuses: []models.Status{models.StatusFailed},
			Info:     map[string]any{},
		})
		_, err := client.GetJobByID("job-1").GetTraceback(context.Background())
		require.Error(t, err)
		assert.Equal(t, apierrors.StatusReasonValidation, apierrors.ReasonForError(err))
	})
}

func lifecycleParams(t *testing.T, submission *testserver.Submission) map[string]any {
	t.Helper()
	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(submission.Params), &params))
	return params
}

func termID(t *testing.T, params map[string]any) string {
	t.Helper()
	must := params["query"].(map[string]any)["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	require.Len(t, must, 1)
	return must[0].(map[string]any)["term"].(map[string]any)["_id"].(string)
}

func Test_Job_lifecycle(t *testing.T) {
	t.Run("revoke submits a purge job with operation revoke", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", nil)
		ts.SetNextJobID("mgmt-1")

		mgmt, err := client.GetJobByID("job-1").Revoke(context.Background(), LifecycleOptions{})
		require.NoError(t, err)
		assert.Equal(t, "mgmt-1", mgmt.ID())

		submission := ts.LastSubmission()
		require.NotNil(t, submission)
		assert.Equal(t, SystemJobsQueue, submission.Queue)
		assert.Equal(t, PurgeJobName, submission.JobName)
		assert.Equal(t, PurgeJobName+":"+DefaultLifecycleVersion, submission.Type)
		assert.Equal(t, "false", submission.EnableDedup)
		assert.Contains(t, submission.Tags, "mozart_revoke_")

		params := lifecycleParams(t, submission)
		assert.Equal(t, "revoke", params["operation"])
		assert.Equal(t, "mozart", params["component"])
		assert.Equal(t, "job-1", termID(t, params))
	})

	t.Run("remove submits a purge job with operation purge", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", nil)

		_, err := client.GetJobByID("job-1").Remove(context.Background(), LifecycleOptions{Tag: "cleanup", Version: "v2.0.1"})
		require.NoError(t, err)

		submission := ts.LastSubmission()
		assert.Equal(t, PurgeJobName+":v2.0.1", submission.Type)
		assert.Equal(t, `["cleanup"]`, submission.Tags)
		assert.Equal(t, "purge", lifecycleParams(t, submission)["operation"])
	})

	t.Run("retry targets the internal record id", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{
			Info: map[string]any{
				"job": map[string]any{
					"job_info": map[string]any{"id": "record-77"},
				},
			},
		})

		_, err := client.GetJobByID("job-1").Retry(context.Background(), LifecycleOptions{})
		require.NoError(t, err)

		submission := ts.LastSubmission()
		assert.Equal(t, RetryJobName, submission.JobName)
		assert.Equal(t, RetryJobName+":"+DefaultLifecycleVersion, submission.Type)

		params := lifecycleParams(t, submission)
		assert.Equal(t, "retry", params["operation"])
		assert.Equal(t, "record-77", termID(t, params))
	})

	t.Run("retry without a record id fails before submission", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{Info: map[string]any{"status": "job-failed"}})

		_, err := client.GetJobByID("job-1").Retry(context.Background(), LifecycleOptions{})
		require.Error(t, err)
		assert.Equal(t, apierrors.StatusReasonValidation, apierrors.ReasonForError(err))
		assert.Empty(t, ts.Submissions())
	})

	t.Run("client level revoke and remove need an id", func(t *testing.T) {
		_, client := newTestClient(t)
		_, err := client.RevokeJob(context.Background(), "", LifecycleOptions{})
		assert.Equal(t, apierrors.StatusReasonValidation, apierrors.ReasonForError(err))
		_, err = client.RemoveJob(context.Background(), "", LifecycleOptions{})
		assert.Equal(t, apierrors.StatusReasonValidation, apierrors.ReasonForError(err))
	})
}

func Test_Job_WaitForCompletion(t *testing.T) {
	t.Run("polls until a terminal status", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{
			Statuses: []models.Status{models.StatusQueued, models.StatusStarted, models.StatusCompleted},
		})

		status, err := client.GetJobByID("job-1").WaitForCompletionWithPolicy(context.Background(), fastPolicy())
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, status)
		assert.Equal(t, 3, ts.StatusQueries("job-1"))
	})

	t.Run("transient status errors are retried", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{
			Statuses:       []models.Status{models.StatusFailed},
			StatusFailures: 2,
		})

		status, err := client.GetJobByID("job-1").WaitForCompletionWithPolicy(context.Background(), fastPolicy())
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, status)
		assert.Equal(t, 3, ts.StatusQueries("job-1"))
	})

	t.Run("ceiling elapses on a job that never finishes", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{Statuses: []models.Status{models.StatusStarted}})

		policy := fastPolicy()
		policy.MaxWait = 50 * time.Millisecond
		_, err := client.GetJobByID("job-1").WaitForCompletionWithPolicy(context.Background(), policy)
		assert.ErrorIs(t, err, poll.ErrTimedOut)
	})

	t.Run("cancellation stops the wait", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-1", &testserver.JobState{Statuses: []models.Status{models.StatusStarted}})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.GetJobByID("job-1").WaitForCompletionWithPolicy(ctx, fastPolicy())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
