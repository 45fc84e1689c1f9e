package ci

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/equinor/radix-common/utils/pointers"
	apierrors "github.com/hysds/mozart-go/api/errors"
	"github.com/hysds/mozart-go/internal/testserver"
	"github.com/hysds/mozart-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, repo, branch string) (*testserver.Server, *Client) {
	t.Helper()
	ts := testserver.New()
	server := httptest.NewServer(ts.Engine())
	t.Cleanup(server.Close)
	client, err := New(&models.Config{Host: server.URL, Username: "tester"}, &models.Env{}, repo, branch)
	require.NoError(t, err)
	return ts, client
}

func Test_New(t *testing.T) {
	_, err := New(&models.Config{Host: "http://localhost"}, &models.Env{}, "", "main")
	require.Error(t, err)
	assert.Equal(t, apierrors.StatusReasonValidation, apierrors.ReasonForError(err))
}

func Test_registration(t *testing.T) {
	repo := "https://github.com/hysds/topsapp.git"
	ts, client := newTestClient(t, repo, "main")

	exists, err := client.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.Register(context.Background()))
	assert.True(t, ts.BuildJobRegistered(repo, "main"))

	exists, err = client.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = client.Unregister(context.Background())
	require.NoError(t, err)
	assert.False(t, ts.BuildJobRegistered(repo, "main"))
}

func Test_builds(t *testing.T) {
	t.Run("registered job builds", func(t *testing.T) {
		_, client := newTestClient(t, "https://github.com/hysds/topsapp.git", "main")
		require.NoError(t, client.Register(context.Background()))

		res, err := client.SubmitBuild(context.Background())
		require.NoError(t, err)
		assert.Equal(t, true, res["success"])

		status, err := client.BuildStatus(context.Background(), pointers.Ptr(1))
		require.NoError(t, err)
		result := status["result"].(map[string]any)
		assert.Equal(t, "SUCCESS", result["status"])

		_, err = client.StopBuild(context.Background())
		assert.NoError(t, err)
		_, err = client.DeleteBuild(context.Background(), nil)
		assert.NoError(t, err)
	})

	t.Run("unregistered job cannot build", func(t *testing.T) {
		_, client := newTestClient(t, "https://github.com/hysds/topsapp.git", "main")
		_, err := client.SubmitBuild(context.Background())
		require.Error(t, err)
		assert.Equal(t, apierrors.StatusReasonNotFound, apierrors.ReasonForError(err))
	})
}
