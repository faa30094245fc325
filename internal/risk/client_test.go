package risk_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stock247/lending-engine/internal/config"
	"github.com/stock247/lending-engine/internal/domain"
	"github.com/stock247/lending-engine/internal/risk"
)

func newRiskClient(url string) risk.Assessor {
	return risk.NewClient(config.RiskConfig{URL: url, Timeout: 5 * time.Second})
}

func TestAssess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"riskScore": 35,
			"riskLevel": "medium",
			"kycStatus": "verified",
			"amlStatus": "clear",
			"fraudFlags": [],
			"recommendation": "approve",
			"reasons": ["consistent sales"],
			"confidenceScore": 0.82
		}`))
	}))
	defer srv.Close()

	verdict, err := newRiskClient(srv.URL).Assess(context.Background(), domain.AssessRiskRequest{ApplicationID: "app-1"})

	assert.NoError(t, err)
	assert.Equal(t, 35, verdict.RiskScore)
	assert.Equal(t, domain.RiskLevelMedium, verdict.RiskLevel)
	assert.Equal(t, "approve", verdict.Recommendation)
}

func TestAssess_MalformedResponseFallsBackToNeutral(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "non-json prose", body: "I'm sorry, I cannot score this application."},
		{name: "truncated json", body: `{"riskScore": 35, "riskLev`},
		{name: "out of range score", body: `{"riskScore": 420, "riskLevel": "low"}`},
		{name: "missing level", body: `{"riskScore": 35}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			verdict, err := newRiskClient(srv.URL).Assess(context.Background(), domain.AssessRiskRequest{ApplicationID: "app-1"})

			// Parse trouble never propagates; the neutral verdict does.
			assert.NoError(t, err)
			assert.Equal(t, domain.NeutralVerdict(), verdict)
		})
	}
}

func TestAssess_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	verdict, err := newRiskClient(srv.URL).Assess(context.Background(), domain.AssessRiskRequest{ApplicationID: "app-1"})

	assert.Error(t, err)
	assert.Equal(t, domain.NeutralVerdict(), verdict)
}
