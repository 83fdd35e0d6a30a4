package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greendefi-labs/escrow-backend/internal/escrow/domain"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/repository"
	"github.com/greendefi-labs/escrow-backend/internal/escrow/service"
	"github.com/greendefi-labs/escrow-backend/internal/oracle"
	"github.com/greendefi-labs/escrow-backend/internal/token"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(ctx context.Context, job oracle.JobRequest) error { return nil }

func newTestRouter(t *testing.T, callbackSecret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fees := token.NewBank()
	fees.Credit("oracle-fees", domain.NewAmount(1000))
	manager := oracle.NewManager(oracle.Options{
		JobID:      "job-1",
		Fee:        domain.NewAmount(10),
		FeeAccount: "oracle-fees",
		Timeout:    5 * time.Minute,
	}, fees, nopDispatcher{})

	svc := service.NewEscrowService(repository.NewLedger(), token.NewBank(), manager, nil, nil)
	h := New(svc, nil, callbackSecret)

	r := gin.New()
	api := r.Group("/api/v1")
	h.Register(api, api)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, account string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set("X-Account", account)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createProject(t *testing.T, r *gin.Engine) uint64 {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/projects", "alice", gin.H{
		"name":              "solar farm",
		"target_amount":     "100",
		"milestone_amounts": []string{"40", "60"},
		"milestone_data":    []string{"panels installed", "grid connected"},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ProjectID uint64 `json:"project_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ProjectID
}

func TestCreateAndGetProject(t *testing.T) {
	r := newTestRouter(t, "")

	id := createProject(t, r)
	assert.Equal(t, uint64(1), id)

	t.Run("get returns the five-field shape", func(t *testing.T) {
		w := do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d", id), "", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Project map[string]any `json:"project"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "solar farm", resp.Project["name"])
		assert.Equal(t, "100", resp.Project["target_amount"])
		assert.Equal(t, "0", resp.Project["current_amount"])
		assert.Equal(t, "alice", resp.Project["creator"])
		assert.Equal(t, false, resp.Project["funded"])
		assert.Len(t, resp.Project, 5)
	})

	t.Run("count", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/projects/count", "", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":1`)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/projects/99", "", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("create requires an account", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/projects", "", gin.H{
			"name":              "p",
			"target_amount":     "1",
			"milestone_amounts": []string{"1"},
			"milestone_data":    []string{"a"},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create rejects a bad milestone schedule", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/projects", "alice", gin.H{
			"name":              "p",
			"target_amount":     "100",
			"milestone_amounts": []string{"40", "50"},
			"milestone_data":    []string{"a", "b"},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContributeEndpoint(t *testing.T) {
	r := newTestRouter(t, "")
	id := createProject(t, r)

	t.Run("accepts a contribution", func(t *testing.T) {
		w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/contributions", id), "bob",
			gin.H{"amount": "100"}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"current_amount":"100"`)
	})

	t.Run("overflow is a conflict", func(t *testing.T) {
		w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/contributions", id), "bob",
			gin.H{"amount": "1"}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestVerificationFlow(t *testing.T) {
	r := newTestRouter(t, "s3cret")
	id := createProject(t, r)

	w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/contributions", id), "bob",
		gin.H{"amount": "100"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/milestones/0/verification", id), "alice", nil, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.RequestID)

	t.Run("callback without the secret is unauthorized", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/oracle/callback", "", gin.H{
			"request_id": accepted.RequestID,
			"success":    true,
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("callback verifies the milestone", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/oracle/callback", "", gin.H{
			"request_id":  accepted.RequestID,
			"success":     true,
			"result_data": "ndvi=0.82",
		}, map[string]string{"X-Oracle-Callback-Secret": "s3cret"})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("duplicate callback is acknowledged", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/oracle/callback", "", gin.H{
			"request_id": accepted.RequestID,
			"success":    false,
		}, map[string]string{"X-Oracle-Callback-Secret": "s3cret"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "already resolved")
	})

	t.Run("release pays the creator", func(t *testing.T) {
		// The escrow account was credited by the contribution above.
		w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/milestones/0/release", id), "alice", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"released_amount":"40"`)
	})

	t.Run("release by a stranger is forbidden", func(t *testing.T) {
		w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/milestones/1/release", id), "mallory", nil, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown callback id is 404", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/oracle/callback", "", gin.H{
			"request_id": "no-such-id",
			"success":    true,
		}, map[string]string{"X-Oracle-Callback-Secret": "s3cret"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed callback body", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/oracle/callback", "", gin.H{
			"request_id": "x",
		}, map[string]string{"X-Oracle-Callback-Secret": "s3cret"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTimeoutEndpoint(t *testing.T) {
	r := newTestRouter(t, "")
	id := createProject(t, r)

	w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/contributions", id), "bob",
		gin.H{"amount": "100"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/milestones/0/verification", id), "alice", nil, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))

	t.Run("fresh request does not expire", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/oracle/requests/"+accepted.RequestID+"/timeout", "", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"expired":false`)
	})

	t.Run("expires past the deadline", func(t *testing.T) {
		old := timeNow
		timeNow = func() time.Time { return time.Now().Add(10 * time.Minute) }
		defer func() { timeNow = old }()

		w := do(t, r, http.MethodPost, "/api/v1/oracle/requests/"+accepted.RequestID+"/timeout", "", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"expired":true`)

		// The milestone behind it is now terminally rejected.
		get := do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/detail", id), "", nil, nil)
		require.Equal(t, http.StatusOK, get.Code)
		assert.Contains(t, get.Body.String(), `"rejected"`)
	})

	t.Run("unknown request id", func(t *testing.T) {
		w := do(t, r, http.MethodPost, "/api/v1/oracle/requests/nope/timeout", "", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
