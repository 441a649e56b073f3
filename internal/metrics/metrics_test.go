package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/v1/advisor/{kind}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/advisor/{kind}", "418"))
	req := httptest.NewRequest("GET", "/api/v1/advisor/market_sentiment", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/advisor/{kind}", "418"))

	if after-before != 1 {
		t.Errorf("expected one request counted under the route pattern, got %v", after-before)
	}
}

func TestSetMarketOpen(t *testing.T) {
	SetMarketOpen(true)
	if v := testutil.ToFloat64(MarketOpen); v != 1 {
		t.Errorf("open gauge = %v, want 1", v)
	}
	SetMarketOpen(false)
	if v := testutil.ToFloat64(MarketOpen); v != 0 {
		t.Errorf("closed gauge = %v, want 0", v)
	}
}
