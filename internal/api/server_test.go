package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ninebox/domain/employee"
	"ninebox/internal/errors"
	"ninebox/internal/intelligence"
	"ninebox/internal/orggraph"
	"ninebox/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) LoadEmployees(ctx context.Context) ([]employee.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]employee.Record)
	return records, args.Error(1)
}

func (m *mockSource) Describe() string { return "mock roster" }

func newTestServer(t *testing.T, source *mockSource) *Server {
	t.Helper()
	opts := Options{
		Analysis:      intelligence.NewService(intelligence.DefaultConfig(), orggraph.NewCache(2)),
		MaxConcurrent: 1,
	}
	if source != nil {
		opts.Source = source
	}
	s := NewServer(opts)
	t.Cleanup(s.events.Close)
	return s
}

func smallOrg() []employee.Record {
	r := func(id int, name, manager string, perf employee.Rating) employee.Record {
		return employee.Record{
			ID: id, Name: name, Manager: manager, Location: "USA", JobLevel: "L3",
			Performance: perf, Potential: employee.RatingMedium,
		}
	}
	return []employee.Record{
		r(1, "Ada Lane", "", employee.RatingHigh),
		r(2, "Ben Cho", "Ada Lane", employee.RatingMedium),
		r(3, "Cy Diaz", "Ada Lane", employee.RatingLow),
		r(4, "Dee Fox", "Ben Cho", employee.RatingMedium),
		r(5, "Eve Gray", "Ben Cho", employee.RatingHigh),
	}
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["population_loaded"])
}

func TestIntelligence_RequiresPopulation(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/intelligence", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, decode(t, w)["code"])
}

func TestIntelligence_ReplaceThenAnalyze(t *testing.T) {
	s := newTestServer(t, nil)
	records := testkit.NewEmployeeGenerator(testkit.DefaultEmployeeConfig()).Generate()

	w := do(t, s, http.MethodPut, "/api/population", PopulationRequest{Employees: records})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, len(records), decode(t, w)["employees"])

	w = do(t, s, http.MethodGet, "/api/intelligence?axis=potential", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, len(records), body["population_size"])
	assert.Equal(t, "potential", body["axis"])
	assert.Contains(t, body, "quality_score")
	assert.Contains(t, body["dimensions"], "location")
}

func TestIntelligence_PostedPopulation(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/api/intelligence", PopulationRequest{Employees: smallOrg()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, decode(t, w)["population_size"])

	_, loaded := s.Population()
	assert.False(t, loaded, "posting a roster must not replace the snapshot")
}

func TestIntelligence_RejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("unknown axis", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/intelligence?axis=salary", PopulationRequest{Employees: smallOrg()})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errors.CodeInvalidInput, decode(t, w)["code"])
	})

	t.Run("invalid rating", func(t *testing.T) {
		bad := smallOrg()
		bad[2].Performance = "Stellar"
		w := do(t, s, http.MethodPost, "/api/intelligence", PopulationRequest{Employees: bad})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errors.CodeValidationError, decode(t, w)["code"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/intelligence", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIntelligence_BusyWhenSaturated(t *testing.T) {
	s := newTestServer(t, nil)
	require.True(t, s.sem.TryAcquire(1))
	defer s.sem.Release(1)

	w := do(t, s, http.MethodPost, "/api/intelligence", PopulationRequest{Employees: smallOrg()})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, errors.CodeBusy, decode(t, w)["code"])
}

func TestIntelligence_SummaryIsHTML(t *testing.T) {
	s := newTestServer(t, nil)
	s.SetPopulation(employee.NewPopulation(smallOrg()))

	w := do(t, s, http.MethodGet, "/api/intelligence/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1")
}

func TestOrgQueries(t *testing.T) {
	s := newTestServer(t, nil)
	s.SetPopulation(employee.NewPopulation(smallOrg()))

	t.Run("managers", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/managers?min_team_size=3", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 1, body["count"])
		first := body["managers"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "Ada Lane", first["name"])
		assert.EqualValues(t, 4, first["team_size"])
	})

	t.Run("bad min_team_size", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/managers?min_team_size=-2", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reports", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/reports/Ben%20Cho", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 2, body["count"])
		assert.EqualValues(t, 2, body["direct_reports"])
	})

	t.Run("reports of unknown name", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/reports/Nobody", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("chain", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/chain/Eve%20Gray", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []interface{}{"Ben Cho", "Ada Lane"}, decode(t, w)["chain"])
	})

	t.Run("chain of unknown employee", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/chain/Nobody", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("tree", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/tree/Ada%20Lane", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 4, body["team_size"])
		assert.Len(t, body["children"], 2)
	})

	t.Run("forest", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/tree", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["roots"], 1)
	})

	t.Run("validate", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/api/org/validate", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["valid"])
	})
}

func TestOrgValidate_ReportsCycle(t *testing.T) {
	s := newTestServer(t, nil)
	records := []employee.Record{
		{ID: 1, Name: "A", Manager: "B", Performance: employee.RatingLow, Potential: employee.RatingLow},
		{ID: 2, Name: "B", Manager: "A", Performance: employee.RatingHigh, Potential: employee.RatingLow},
	}
	s.SetPopulation(employee.NewPopulation(records))

	w := do(t, s, http.MethodGet, "/api/org/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["valid"])
	assert.Len(t, body["cycles"], 1)
}

func TestReload(t *testing.T) {
	t.Run("from source", func(t *testing.T) {
		source := &mockSource{}
		source.On("LoadEmployees", mock.Anything).Return(smallOrg(), nil).Once()
		s := newTestServer(t, source)

		w := do(t, s, http.MethodPost, "/api/population/reload", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 5, decode(t, w)["employees"])
		source.AssertExpectations(t)
	})

	t.Run("source failure", func(t *testing.T) {
		source := &mockSource{}
		source.On("LoadEmployees", mock.Anything).
			Return(nil, errors.RosterError("mock roster", context.DeadlineExceeded)).Once()
		s := newTestServer(t, source)

		w := do(t, s, http.MethodPost, "/api/population/reload", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, errors.CodeRosterError, decode(t, w)["code"])
		_, loaded := s.Population()
		assert.False(t, loaded)
	})

	t.Run("no source", func(t *testing.T) {
		s := newTestServer(t, nil)
		w := do(t, s, http.MethodPost, "/api/population/reload", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEventHub_DeliversEvents(t *testing.T) {
	s := newTestServer(t, nil)
	events, cancel := s.events.Subscribe()
	defer cancel()

	s.SetPopulation(employee.NewPopulation(smallOrg()))
	w := do(t, s, http.MethodGet, "/api/intelligence", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, e)
		case <-timeout:
			t.Fatalf("received %d events, want 2", len(got))
		}
	}
	assert.Equal(t, EventPopulationChanged, got[0].Type)
	assert.Equal(t, 5, got[0].Employees)
	assert.Equal(t, EventReportReady, got[1].Type)
	require.NotNil(t, got[1].QualityScore)
	assert.NotEmpty(t, got[1].ReportID)
}

func TestEventHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewEventHub()
	events, cancel := hub.Subscribe()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	_, open := <-events
	assert.False(t, open)
	cancel()

	late, _ := hub.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.SetPopulation(employee.NewPopulation(smallOrg()))
	do(t, s, http.MethodGet, "/api/org/validate", nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ninebox_org_queries_total")
}
