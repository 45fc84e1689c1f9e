package mozart

import (
	"context"
	"testing"

	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/testserver"
	"github.com/hysds/mozart-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewJobSet(t *testing.T) {
	_, client := newTestClient(t)

	t.Run("skips nil handles", func(t *testing.T) {
		jobSet := client.NewJobSet(client.GetJobByID("job-1"), nil, client.GetJobByID("job-2"))
		assert.Equal(t, 2, jobSet.Len())
		assert.Equal(t, "job-1", jobSet.At(0).ID())
		assert.Equal(t, "job-2", jobSet.At(1).ID())
	})

	t.Run("append rejects nil", func(t *testing.T) {
		jobSet := client.NewJobSet()
		err := jobSet.Append(nil)
		assert.Equal(t, apierrors.StatusReasonValidation, apierrors.ReasonForError(err))
		assert.Zero(t, jobSet.Len())
	})

	t.Run("append keeps duplicates", func(t *testing.T) {
		jobSet := client.NewJobSet()
		job := client.GetJobByID("job-1")
		require.NoError(t, jobSet.Append(job))
		require.NoError(t, jobSet.Append(job))
		assert.Equal(t, 2, jobSet.Len())
	})
}

func Test_JobSet_WaitForCompletion(t *testing.T) {
	t.Run("returns once every member is done", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-a", &testserver.JobState{Statuses: []models.Status{models.StatusCompleted}})
		ts.AddJob("job-b", &testserver.JobState{Statuses: []models.Status{models.StatusFailed}})
		jobSet := client.NewJobSet(client.GetJobByID("job-a"), client.GetJobByID("job-b"))

		err := jobSet.WaitForCompletionWithPolicy(context.Background(), fastPolicy())
		require.NoError(t, err)
		assert.Equal(t, 1, ts.StatusQueries("job-a"))
		assert.Equal(t, 1, ts.StatusQueries("job-b"))
	})

	t.Run("finished members are not re-polled", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-a", &testserver.JobState{Statuses: []models.Status{models.StatusStarted, models.StatusCompleted}})
		ts.AddJob("job-b", &testserver.JobState{Statuses: []models.Status{models.StatusCompleted}})
		jobSet := client.NewJobSet(client.GetJobByID("job-a"), client.GetJobByID("job-b"))

		err := jobSet.WaitForCompletionWithPolicy(context.Background(), fastPolicy())
		require.NoError(t, err)
		assert.Equal(t, 2, ts.StatusQueries("job-a"))
		assert.Equal(t, 1, ts.StatusQueries("job-b"))
	})

	t.Run("erroring members are counted done", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-a", &testserver.JobState{Statuses: []models.Status{models.StatusCompleted}})
		ts.AddJob("job-b", &testserver.JobState{
			Statuses:       []models.Status{models.StatusStarted},
			StatusFailures: -1,
		})
		jobSet := client.NewJobSet(client.GetJobByID("job-a"), client.GetJobByID("job-b"))

		err := jobSet.WaitForCompletionWithPolicy(context.Background(), fastPolicy())
		require.NoError(t, err)
		assert.Equal(t, 1, ts.StatusQueries("job-a"))
		assert.Equal(t, 1, ts.StatusQueries("job-b"))
	})

	t.Run("empty set returns immediately", func(t *testing.T) {
		_, client := newTestClient(t)
		err := client.NewJobSet().WaitForCompletionWithPolicy(context.Background(), fastPolicy())
		assert.NoError(t, err)
	})

	t.Run("cancellation stops the wait", func(t *testing.T) {
		ts, client := newTestClient(t)
		ts.AddJob("job-a", &testserver.JobState{Statuses: []models.Status{models.StatusStarted}})
		jobSet := client.NewJobSet(client.GetJobByID("job-a"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := jobSet.WaitForCompletionWithPolicy(ctx, fastPolicy())
		assert.ErrorIs(t, err, context.Canceled)
	})
}
