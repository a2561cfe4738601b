package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue reads a counter sample from the registry. labels lists
// name/value pairs that must all match.
func counterValue(t *testing.T, name string, labels ...string) float64 {
	t.Helper()
	families, err := Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labels); i += 2 {
				if got[labels[i]] != labels[i+1] {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                   "/",
		"/":                                  "/",
		"/healthz":                           "/healthz",
		"/GameOfLife":                        "/GameOfLife",
		"/GameOfLife/abc":                    "/GameOfLife/{boardId}",
		"/GameOfLife/next_state/abc":         "/GameOfLife/next_state/{boardId}",
		"/GameOfLife/final/abc":              "/GameOfLife/final/{boardId}",
		"/GameOfLife/increment_state/abc/12": "/GameOfLife/increment_state/{boardId}/{statesToIncrement}",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalPath(in), in)
	}
}

func TestRecordAdvance(t *testing.T) {
	before := counterValue(t, "gameoflife_engine_generations_total", "operation", "test_advance")
	warnBefore := counterValue(t, "gameoflife_engine_limit_warnings_total", "operation", "test_advance")

	RecordAdvance("test_advance", 3, 10*time.Millisecond, true)
	RecordAdvance("test_advance", 2, 0, false)

	assert.Equal(t, before+5, counterValue(t, "gameoflife_engine_generations_total", "operation", "test_advance"))
	assert.Equal(t, warnBefore+1, counterValue(t, "gameoflife_engine_limit_warnings_total", "operation", "test_advance"))
}

func TestRecordCellsEvaluatedIgnoresEmpty(t *testing.T) {
	before := counterValue(t, "gameoflife_engine_cells_evaluated_total")
	RecordCellsEvaluated(0)
	RecordCellsEvaluated(9)
	assert.Equal(t, before+9, counterValue(t, "gameoflife_engine_cells_evaluated_total"))
}

func TestObserveHTTPRequestExposition(t *testing.T) {
	ObserveHTTPRequest("get", "/GameOfLife/{boardId}", "404", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `gameoflife_http_requests_total{method="GET",path="/GameOfLife/{boardId}",status="404"}`), body)
	assert.Contains(t, body, "gameoflife_engine_cells_evaluated_total")
}
