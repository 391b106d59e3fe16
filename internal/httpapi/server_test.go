package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planforge/internal/generator"
	"github.com/fyrsmithlabs/planforge/internal/plan"
	"github.com/fyrsmithlabs/planforge/internal/stage"
	"github.com/fyrsmithlabs/planforge/internal/store"
)

func newTestServer(t *testing.T, mock stage.Adapter, cfg *Config) *Server {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "planforge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gen := generator.NewService(mock, generator.Options{StageTimeout: 30 * time.Second}, zap.NewNop())
	srv, err := NewServer(gen, st, zap.NewNop(), cfg)
	require.NoError(t, err)
	return srv
}

func happyMock() *stage.MockAdapter {
	return stage.NewMockAdapter().
		Succeed(stage.Research, stage.ValidPayload(stage.Research)).
		Succeed(stage.Strategy, stage.ValidPayload(stage.Strategy)).
		Succeed(stage.Evaluation, stage.ValidPayload(stage.Evaluation))
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func createBrief(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs", map[string]any{
		"product_name":     "Solar Kettle",
		"product_category": "outdoor gear",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateBriefResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.BriefID)
	return resp.BriefID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	rec := doJSON(t, srv, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetBrief(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	id := createBrief(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/briefs/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var brief plan.ProductBrief
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &brief))
	assert.Equal(t, "Solar Kettle", brief.ProductName)

	listRec := doJSON(t, srv, http.MethodGet, "/api/v1/briefs", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var briefs []plan.ProductBrief
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &briefs))
	assert.Len(t, briefs, 1)
}

func TestCreateBrief_MissingProductName(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs", map[string]any{"product_category": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBrief_NotFound(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/briefs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeneratePlan(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	id := createBrief(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs/"+id+"/plan", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p plan.MarketingPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Len(t, p.Sections, 12)
	assert.Equal(t, plan.StatusCompleted, p.Status)
	require.NotNil(t, p.QualityScore)

	// The stored plan is now retrievable.
	getRec := doJSON(t, srv, http.MethodGet, "/api/v1/briefs/"+id+"/plan", nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	var stored plan.MarketingPlan
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &stored))
	assert.Equal(t, p.ID, stored.ID)
}

func TestGeneratePlan_MarkdownFormat(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	id := createBrief(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs/"+id+"/plan?format=markdown", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "# Marketing Plan: Solar Kettle")
}

func TestGeneratePlan_BriefNotFound(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs/missing/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeneratePlan_PipelineFailure(t *testing.T) {
	mock := stage.NewMockAdapter().
		Fail(stage.Research, &stage.PermanentError{Reason: "invalid API key"})
	srv := newTestServer(t, mock, nil)
	id := createBrief(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs/"+id+"/plan", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// No partial plan was stored.
	getRec := doJSON(t, srv, http.MethodGet, "/api/v1/briefs/"+id+"/plan", nil)
	assert.Equal(t, http.StatusNotFound, getRec.Code)
}

func TestGetPlan_NoneYet(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	id := createBrief(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/briefs/"+id+"/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuggest(t *testing.T) {
	mock := stage.NewMockAdapter().
		Succeed(stage.FieldSuggestion, stage.Payload{"suggestion": json.RawMessage(`"Boils water with sunlight only."`)})
	srv := newTestServer(t, mock, nil)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/suggest", SuggestRequest{
		Field:   "product_usp",
		Context: map[string]string{"product_name": "Solar Kettle"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SuggestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "product_usp", resp.Field)
	assert.Equal(t, "Boils water with sunlight only.", resp.Suggestion)
}

func TestSuggest_MissingField(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/suggest", SuggestRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyEnforcement(t *testing.T) {
	srv := newTestServer(t, happyMock(), &Config{APIKey: "sekrit"})

	// Health and metrics stay open.
	assert.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/metrics", nil).Code)

	// API routes reject missing or wrong keys.
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/briefs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/briefs", nil)
	req.Header.Set("X-API-Key", "wrong")
	wrongRec := httptest.NewRecorder()
	srv.echo.ServeHTTP(wrongRec, req)
	assert.Equal(t, http.StatusUnauthorized, wrongRec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/briefs", nil)
	req.Header.Set("X-API-Key", "sekrit")
	okRec := httptest.NewRecorder()
	srv.echo.ServeHTTP(okRec, req)
	assert.Equal(t, http.StatusOK, okRec.Code)
}

func TestGeneratePlan_ConcurrentConflict(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	mock := &gatedAdapter{inner: happyMock(), started: started, release: release}
	srv := newTestServer(t, mock, nil)
	id := createBrief(t, srv)

	done := make(chan int)
	go func() {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs/"+id+"/plan", nil)
		done <- rec.Code
	}()

	<-started
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/briefs/"+id+"/plan", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	assert.Equal(t, http.StatusCreated, <-done)
}

// gatedAdapter blocks the first research call until released.
type gatedAdapter struct {
	inner    stage.Adapter
	started  chan struct{}
	release  chan struct{}
	blockOne sync.Once
}

func (g *gatedAdapter) Invoke(ctx context.Context, req stage.Request) (stage.Payload, error) {
	if req.Stage == stage.Research {
		g.blockOne.Do(func() {
			close(g.started)
			<-g.release
		})
	}
	return g.inner.Invoke(ctx, req)
}

func TestRequestIDHeaderPresent(t *testing.T) {
	srv := newTestServer(t, happyMock(), nil)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
