package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDispatch(t *testing.T) {
	t.Run("posts the job payload", func(t *testing.T) {
		var got JobRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/jobs", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		err := c.Dispatch(context.Background(), JobRequest{
			RequestID:      "req-1",
			JobID:          "job-1",
			ProjectID:      3,
			MilestoneIndex: 1,
			Data:           "grid connected",
			CallbackURL:    "http://backend/api/v1/oracle/callback",
		})
		require.NoError(t, err)
		assert.Equal(t, "req-1", got.RequestID)
		assert.Equal(t, uint64(3), got.ProjectID)
		assert.Equal(t, 1, got.MilestoneIndex)
	})

	t.Run("surfaces oracle errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		err := c.Dispatch(context.Background(), JobRequest{RequestID: "req-1"})
		assert.ErrorContains(t, err, "status 500")
	})

	t.Run("fails fast on an unreachable oracle", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1")
		err := c.Dispatch(context.Background(), JobRequest{RequestID: "req-1"})
		assert.Error(t, err)
	})
}
