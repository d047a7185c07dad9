package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mikey/phishguard/internal/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counts(t *testing.T) {
	r := NewRecorder()

	r.ObserveVerdict("email", core.LabelSpam)
	r.ObserveVerdict("email", core.LabelSpam)
	r.ObserveVerdict("url", core.LabelBenign)
	r.ObserveModel("email", core.ModelUnavailable)
	r.ObserveLookup("whois", core.StatusTimeout)

	if got := testutil.ToFloat64(r.verdicts.WithLabelValues("email", "SPAM")); got != 2 {
		t.Errorf("email SPAM count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.models.WithLabelValues("email", "unavailable")); got != 1 {
		t.Errorf("unavailable model count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.lookups.WithLabelValues("whois", "timeout")); got != 1 {
		t.Errorf("whois timeout count = %v, want 1", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveLookup("http", core.StatusOK)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `phishguard_lookups_total{kind="http",status="ok"} 1`) {
		t.Errorf("metrics output missing lookup counter:\n%s", body)
	}
}
