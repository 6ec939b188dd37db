package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/metrics"
	"github.com/piwi3910/RollSlit/internal/model"
	"github.com/piwi3910/RollSlit/internal/store"
)

var testClock = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	parent model.RollMaster
}

// newTestServer seeds a 100kg GRN lot of 1200mm 40gsm paper.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	s := engine.NewSlitter(store.NewMemory(), engine.DefaultConfig(),
		engine.WithClock(func() time.Time { return testClock }),
		engine.WithRecorder(metrics.New(reg)),
	)

	parent := model.NewRollMaster("Maplitho 40gsm 1200mm", model.RollSpec{WidthMM: 1200, BasisWeight: 40})
	require.NoError(t, s.AddMasters(ctx, []model.RollMaster{parent}))
	require.NoError(t, s.ReceiveLots(ctx, model.StoreGRN, []model.Lot{{
		ID:           "GRN-1",
		ItemName:     parent.Name,
		RollMasterID: parent.ID,
		BatchNo:      "B2506",
		Spec:         parent.Spec,
		RemainingQty: 100,
	}}))

	return &testServer{router: NewRouter(NewController(s, nil), reg), parent: parent}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func testDraft(processM float64, plans ...model.CuttingPlan) model.JobDraft {
	return model.JobDraft{
		LotID:          "GRN-1",
		Store:          model.StoreGRN,
		ProcessLengthM: processM,
		CuttingPlans:   plans,
		Operator:       "Ravi",
		Machine:        "Slitter SR-1300",
		StartTime:      testClock.Add(-time.Hour),
		EndTime:        testClock,
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestConvert(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/convert", gin.H{
		"value": 100,
		"unit":  "kg",
		"spec":  gin.H{"width_mm": 1200, "gsm": 40},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var q engine.RollQuantity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, 2083.33, q.LengthM)
	assert.True(t, q.Complete)

	w = ts.do(t, http.MethodPost, "/api/v1/convert", gin.H{"value": 1, "unit": "feet"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidatePlans(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/validate", gin.H{
		"mother_width_mm": 1200,
		"plans":           []gin.H{{"child_width_mm": 500, "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Result engine.ValidationResult `json:"result"`
		Layout model.KnifeLayout       `json:"layout"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Result.Valid)
	assert.Equal(t, 700.0, body.Result.UnusedWidthMM)
	assert.Equal(t, 700.0, body.Layout.TrimMM)

	w = ts.do(t, http.MethodPost, "/api/v1/validate", gin.H{
		"mother_width_mm": 1200,
		"plans":           []gin.H{{"child_width_mm": 0, "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCommitGetDelete(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/jobs", testDraft(500, model.NewCuttingPlan(600, 2)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var job model.SlittingJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "SL00001/2025-26", job.ID)
	assert.Equal(t, 24.0, job.ConsumedKg)

	w = ts.do(t, http.MethodGet, "/api/v1/jobs/SL00001/2025-26", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/lots/stock/SL00001/2025-26-OUT-01", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/jobs", nil)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = ts.do(t, http.MethodDelete, "/api/v1/jobs/SL00001/2025-26", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Output lots are gone and a second reversal is refused.
	w = ts.do(t, http.MethodGet, "/api/v1/lots/stock/SL00001/2025-26-OUT-01", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/v1/jobs/SL00001/2025-26", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rollslit_jobs_committed_total 1")
	assert.Contains(t, w.Body.String(), "rollslit_jobs_reversed_total 1")
}

func TestCommit_ValidationError(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/jobs", testDraft(500, model.NewCuttingPlan(700, 2)))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Messages)
	assert.Contains(t, body.Messages[0], "exceeds mother roll width")
}

func TestCommit_MissingLot(t *testing.T) {
	ts := newTestServer(t)

	d := testDraft(500, model.NewCuttingPlan(600, 2))
	d.LotID = "GRN-404"
	w := ts.do(t, http.MethodPost, "/api/v1/jobs", d)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPreviewJob(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/jobs/preview", testDraft(500, model.NewCuttingPlan(500, 2)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"state":"Draft"`)
	assert.Contains(t, w.Body.String(), "Unused width: 200mm")

	w = ts.do(t, http.MethodGet, "/api/v1/jobs", nil)
	assert.Contains(t, w.Body.String(), `"count":0`)
}

func TestGetJob_NotFound(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/v1/jobs/SL09999/2025-26", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/v1/jobs/SL09999/2025-26", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLots(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/lots/pallet", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/lots/stock", []gin.H{{
		"id":       "STK-9",
		"batch_no": "K9",
		"spec":     gin.H{"width_mm": 600, "gsm": 40},
		"length_m": 1000,
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/lots/stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "STK-9")

	w = ts.do(t, http.MethodPost, "/api/v1/lots/stock", []gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMotherLots(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/masters/"+ts.parent.ID+"/mother-lots?store=grn", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "GRN-1")

	w = ts.do(t, http.MethodGet, "/api/v1/masters/nope/mother-lots", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/masters", nil)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
