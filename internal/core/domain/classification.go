package domain

import "time"

// ServiceClassification records that one sub-service of a catalog entry is
// AI related. Entry attributes are copied at classification time.
type ServiceClassification struct {
	ID              int64     `json:"id,omitempty"`
	EntryID         string    `json:"product_id"`
	EntryName       string    `json:"product_name"`
	Provider        string    `json:"provider_name"`
	ServiceName     string    `json:"service_name"`
	HasAI           bool      `json:"has_ai"`
	HasGenAI        bool      `json:"has_genai"`
	HasLLM          bool      `json:"has_llm"`
	RelevantExcerpt string    `json:"relevant_excerpt"`
	Status          string    `json:"fedramp_status"`
	ImpactLevel     string    `json:"impact_level"`
	Agencies        string    `json:"agencies"`
	AuthDate        string    `json:"auth_date"`
	AnalyzedAt      time.Time `json:"analyzed_at,omitempty"`
}

func (c ServiceClassification) AnyFlag() bool {
	return c.HasAI || c.HasGenAI || c.HasLLM
}

// AnalysisRun is the audit row written for every entry a pass completes,
// including entries that produced no findings.
type AnalysisRun struct {
	ID            int64     `json:"id,omitempty"`
	PassID        string    `json:"pass_id"`
	EntryID       string    `json:"product_id"`
	EntryName     string    `json:"product_name"`
	Provider      string    `json:"provider_name"`
	FindingsCount int       `json:"ai_services_found"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

type AIFlag string

const (
	FlagAny   AIFlag = ""
	FlagAI    AIFlag = "ai"
	FlagGenAI AIFlag = "genai"
	FlagLLM   AIFlag = "llm"
)

func ParseAIFlag(raw string) (AIFlag, bool) {
	switch AIFlag(raw) {
	case FlagAny, FlagAI, FlagGenAI, FlagLLM:
		return AIFlag(raw), true
	default:
		return FlagAny, false
	}
}

type ClassificationFilter struct {
	Flag     AIFlag
	Provider string
}

// ClassificationStats aggregates findings. The JSON names follow the
// reporting surface consumed downstream.
type ClassificationStats struct {
	TotalAIServices int `json:"total_ai_services" yaml:"total_ai_services"`
	CountAI         int `json:"count_ai" yaml:"count_ai"`
	CountGenAI      int `json:"count_genai" yaml:"count_genai"`
	CountLLM        int `json:"count_llm" yaml:"count_llm"`
	ProductsWithAI  int `json:"products_with_ai" yaml:"products_with_ai"`
	ProvidersWithAI int `json:"providers_with_ai" yaml:"providers_with_ai"`
}

type AnalysisRunStats struct {
	ProductsAnalyzed   int        `json:"products_analyzed" yaml:"products_analyzed"`
	LastRun            *time.Time `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	TotalServicesFound int        `json:"total_services_found" yaml:"total_services_found"`
}

// PassStats summarises one orchestrator pass.
type PassStats struct {
	PassID    string `json:"pass_id" yaml:"pass_id"`
	Entries   int    `json:"entries" yaml:"entries"`
	Processed int    `json:"processed" yaml:"processed"`
	Succeeded int    `json:"succeeded" yaml:"succeeded"`
	Failed    int    `json:"failed" yaml:"failed"`
	Skipped   int    `json:"skipped" yaml:"skipped"`

	ClassificationStats `yaml:",inline"`
}
