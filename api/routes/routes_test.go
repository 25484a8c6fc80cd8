package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/api/handlers"
	"github.com/wahid18-maqs/blood-test-analyser/api/middleware"
	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/stage"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/internal/pipeline"
	"github.com/wahid18-maqs/blood-test-analyser/internal/service/analysis"
	"github.com/wahid18-maqs/blood-test-analyser/internal/utils/validator"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/cache"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/history"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/metrics"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/storage"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/storage/local"
)

const report = "Hemoglobin 11.2 g/dL 12.0-15.5\nGlucose 95 mg/dL 70-100"

type plainExtractor struct{}

func (plainExtractor) Extract(_ context.Context, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return document.EmptyDocumentText, nil
	}
	return document.CleanText(string(b)), nil
}

func (plainExtractor) Close() error { return nil }

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, analysis.Request) ([]byte, error) {
	return nil, &pipeline.StageError{Stage: models.StageVerification, Err: errors.New("secret upstream detail")}
}

func (failingAnalyzer) History(context.Context, int) ([]models.AnalysisRecord, error) {
	return nil, errors.New("no such table: analysis_records")
}

func newRouter(t *testing.T, svc analysis.Analyzer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	v := validator.NewDocumentValidator(log, nil)

	if svc == nil {
		dir := t.TempDir()
		backend, err := local.NewLocalStorage(filepath.Join(dir, "data"), log)
		require.NoError(t, err)
		hist, err := history.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "h.db")})
		require.NoError(t, err)
		t.Cleanup(func() { hist.Close() })

		comprehensive, err := pipeline.Comprehensive(stage.Heuristic())
		require.NoError(t, err)
		simple, err := pipeline.Simple(stage.Heuristic())
		require.NoError(t, err)

		s, err := analysis.NewService(analysis.Deps{
			Validator: v,
			Artifacts: storage.NewArtifactStore(backend, v.MaxFileSize(), log),
			Extractor: plainExtractor{},
			Cache:     cache.NewMemoryCache(16, time.Hour),
			History:   hist,
			Pipelines: map[models.AnalysisType]*pipeline.Pipeline{
				models.AnalysisComprehensive: comprehensive,
				models.AnalysisSimple:        simple,
			},
			Logger: log,
		}, analysis.ServiceConfig{CacheTTL: time.Hour, MaxConcurrent: 2, ProcessTimeout: time.Minute})
		require.NoError(t, err)
		svc = s
	}

	reg := prometheus.NewRegistry()
	r := gin.New()
	SetupRoutes(r, handlers.NewHandlers(svc, v, log), Options{
		AllowOrigins: []string{"*"},
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Logger:       log,
	})
	return r
}

func upload(t *testing.T, path, filename string, content []byte, query string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if query != "" {
		require.NoError(t, w.WriteField("query", query))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStaticEndpoints(t *testing.T) {
	r := newRouter(t, nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Blood Test Report Analyser API is running","version":"1.0.0","status":"Healthy"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec = serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"healthy","services":{"api":"running","ai_agents":"ready","file_processing":"ready"}}`, rec.Body.String())
	}
}

func TestAnalyzeEndpoints(t *testing.T) {
	r := newRouter(t, nil)

	first := serve(r, upload(t, "/analyze", "blood.pdf", []byte(report), "check my iron"))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "check my iron", resp.Query)
	require.Equal(t, "blood.pdf", resp.FileProcessed)
	require.Equal(t, models.AnalysisComprehensive, resp.AnalysisType)
	require.Contains(t, resp.Analysis, "## Exercise Plan")

	repeat := serve(r, upload(t, "/api/v1/analyze", "blood.pdf", []byte(report), "Check my IRON"))
	require.Equal(t, http.StatusOK, repeat.Code)
	require.Equal(t, first.Body.Bytes(), repeat.Body.Bytes())

	simple := serve(r, upload(t, "/analyze-simple", "blood.pdf", []byte(report), ""))
	require.Equal(t, http.StatusOK, simple.Code)
	require.NoError(t, json.Unmarshal(simple.Body.Bytes(), &resp))
	require.Equal(t, models.AnalysisSimple, resp.AnalysisType)
	require.Equal(t, analysis.DefaultSimpleQuery, resp.Query)

	empty := serve(r, upload(t, "/analyze", "empty.pdf", nil, ""))
	require.Equal(t, http.StatusOK, empty.Code)
	require.NoError(t, json.Unmarshal(empty.Body.Bytes(), &resp))
	require.Contains(t, resp.Analysis, "Upload your blood test report")

	hist := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=2", nil))
	require.Equal(t, http.StatusOK, hist.Code)
	var h handlers.HistoryResponse
	require.NoError(t, json.Unmarshal(hist.Body.Bytes(), &h))
	require.Equal(t, 2, h.Count)
	require.Equal(t, "empty.pdf", h.Records[0].FileName)
}

func TestAnalyzeRejectsBadUploads(t *testing.T) {
	r := newRouter(t, nil)

	cases := []struct {
		name string
		req  *http.Request
		code string
	}{
		{"wrong type", upload(t, "/analyze", "notes.txt", []byte(report), ""), validator.CodeInvalidFileType},
		{"no file", upload(t, "/analyze", "", nil, "q"), validator.CodeMissingFile},
		{"too large", upload(t, "/analyze-simple", "big.pdf", make([]byte, 11<<20), ""), ""},
		{"bad limit", httptest.NewRequest(http.MethodGet, "/history?limit=abc", nil), "INVALID_LIMIT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(r, tc.req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tc.code != "" {
				require.Equal(t, tc.code, body.Error)
			}
		})
	}
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	r := newRouter(t, failingAnalyzer{})

	rec := serve(r, upload(t, "/analyze", "blood.pdf", []byte(report), ""))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret upstream detail")

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "analysis_records")
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouter(t, nil)
	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `analyser_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
