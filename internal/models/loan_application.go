package models

import (
	"time"

	"gorm.io/datatypes"
)

// Loan decision statuses
const (
	LoanDecisionApproved     = "approved"
	LoanDecisionManualReview = "manual_review"
	LoanDecisionDenied       = "denied"
)

// FeatureImpact describes how one input feature moved the score
type FeatureImpact struct {
	Feature         string  `json:"feature"`
	Value           float64 `json:"value"`
	Weight          float64 `json:"weight"`
	Direction       string  `json:"direction"` // positive, negative
	DisplayValue    string  `json:"displayValue,omitempty"`
	NormalizedValue float64 `json:"normalizedValue"`
	IsDefault       bool    `json:"isDefault"`
}

// LoanApplication stores the scored outcome of a loan application
type LoanApplication struct {
	ID                 uint                               `gorm:"primaryKey" json:"-"`
	ApplicationID      string                             `gorm:"size:64;uniqueIndex;not null" json:"applicationId"`
	CustomerID         string                             `gorm:"size:64;index;not null" json:"customerId"`
	RawFeatures        datatypes.JSON                     `gorm:"type:jsonb;not null" json:"rawFeatures"`
	Score              float64                            `gorm:"not null" json:"score"`
	Decision           string                             `gorm:"size:20;not null" json:"decision"`
	ExplanationSummary string                             `gorm:"type:text" json:"explanationSummary"`
	FeatureImpacts     datatypes.JSONSlice[FeatureImpact] `gorm:"type:jsonb" json:"featureImpacts"`
	ModelVersion       string                             `gorm:"size:64;not null" json:"modelVersion"`
	CreatedAt          time.Time                          `json:"createdAt"`
	UpdatedAt          time.Time                          `json:"updatedAt"`
}

// TableName specifies the table name for LoanApplication
func (LoanApplication) TableName() string {
	return "loan_applications"
}
