package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

// RiskAssessment is the single per-application verdict produced by the
// external scoring gateway.
type RiskAssessment struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	ApplicationID uuid.UUID      `json:"application_id" db:"application_id"`
	RiskScore     int            `json:"risk_score" db:"risk_score"`
	RiskLevel     string         `json:"risk_level" db:"risk_level"`
	KYCStatus     string         `json:"kyc_status" db:"kyc_status"`
	AMLStatus     string         `json:"aml_status" db:"aml_status"`
	FraudFlags    pq.StringArray `json:"fraud_flags" db:"fraud_flags"`
	Notes         string         `json:"notes" db:"notes"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// RiskVerdict is the wire shape returned by the scoring gateway.
type RiskVerdict struct {
	RiskScore       int      `json:"riskScore"`
	RiskLevel       string   `json:"riskLevel"`
	KYCStatus       string   `json:"kycStatus"`
	AMLStatus       string   `json:"amlStatus"`
	FraudFlags      []string `json:"fraudFlags"`
	Recommendation  string   `json:"recommendation"`
	Reasons         []string `json:"reasons"`
	ConfidenceScore float64  `json:"confidenceScore"`
}

// NeutralVerdict is the fixed fallback used when the gateway returns a
// malformed or non-JSON response.
func NeutralVerdict() RiskVerdict {
	return RiskVerdict{
		RiskScore:      50,
		RiskLevel:      RiskLevelMedium,
		KYCStatus:      "pending",
		AMLStatus:      "pending",
		Recommendation: "manual_review",
	}
}

type AssessRiskRequest struct {
	ApplicationID string            `json:"applicationId"`
	DocumentURLs  []string          `json:"documentUrls"`
	BusinessData  map[string]string `json:"businessData"`
}
