package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOutcome(t *testing.T) {
	before := testutil.ToFloat64(claimOutcomes.WithLabelValues("claimed"))
	xpBefore := testutil.ToFloat64(earnedXP)

	ObserveOutcome("claimed", 50)
	ObserveOutcome("answer_missing", 0)

	if got := testutil.ToFloat64(claimOutcomes.WithLabelValues("claimed")) - before; got != 1 {
		t.Errorf("expected 1 claimed outcome, got %v", got)
	}
	if got := testutil.ToFloat64(earnedXP) - xpBefore; got != 50 {
		t.Errorf("expected 50 XP, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	ObserveSubmission()
	ObserveRun("ok", 12)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"questclaim_claim_submissions_total", "questclaim_run_duration_seconds"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
