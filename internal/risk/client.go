package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/stock247/lending-engine/internal/config"
	"github.com/stock247/lending-engine/internal/domain"
)

// Assessor produces a risk verdict for one application by calling the
// external scoring gateway.
type Assessor interface {
	Assess(ctx context.Context, req domain.AssessRiskRequest) (domain.RiskVerdict, error)
}

type client struct {
	cfg        config.RiskConfig
	httpClient *http.Client
}

func NewClient(cfg config.RiskConfig) Assessor {
	return &client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Assess posts the application's documents and business fields to the
// scoring gateway. A malformed or non-JSON response falls back to the
// fixed neutral verdict instead of surfacing a parse error; only
// transport-level failures return an error.
func (c *client) Assess(ctx context.Context, req domain.AssessRiskRequest) (domain.RiskVerdict, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.NeutralVerdict(), err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return domain.NeutralVerdict(), err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.NeutralVerdict(), err
	}
	defer resp.Body.Close()

	var verdict domain.RiskVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		log.Printf("risk gateway returned malformed verdict, using neutral fallback: %v", err)
		return domain.NeutralVerdict(), nil
	}

	if verdict.RiskScore < 0 || verdict.RiskScore > 100 || verdict.RiskLevel == "" {
		log.Printf("risk gateway verdict out of range (score=%d level=%q), using neutral fallback", verdict.RiskScore, verdict.RiskLevel)
		return domain.NeutralVerdict(), nil
	}

	return verdict, nil
}
