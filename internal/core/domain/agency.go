package domain

import (
	"regexp"
	"strings"
	"time"
)

type AgencyCategory string

const (
	CategoryStaffLLM    AgencyCategory = "staff_llm"
	CategorySpecialized AgencyCategory = "specialized"
)

func ParseAgencyCategory(raw string) (AgencyCategory, bool) {
	switch AgencyCategory(raw) {
	case CategoryStaffLLM, CategorySpecialized:
		return AgencyCategory(raw), true
	default:
		return "", false
	}
}

// AgencyUsageRecord is one agency's self-reported AI posture. Staff LLM
// rows fill the chat/coding fields, specialized rows fill ToolName and
// ToolPurpose; both share identity, notes and sources.
type AgencyUsageRecord struct {
	ID         int64          `json:"id"`
	AgencyName string         `json:"agency_name"`
	Category   AgencyCategory `json:"agency_category"`
	Slug       string         `json:"slug"`

	HasStaffLLM        string `json:"has_staff_llm,omitempty"`
	LLMName            string `json:"llm_name,omitempty"`
	HasCodingAssistant string `json:"has_coding_assistant,omitempty"`
	OtherAIPresent     string `json:"other_ai_present,omitempty"`

	ToolName    string `json:"tool_name,omitempty"`
	ToolPurpose string `json:"tool_purpose,omitempty"`

	Scope            string `json:"scope,omitempty"`
	SolutionType     string `json:"solution_type,omitempty"`
	NonPublicAllowed string `json:"non_public_allowed,omitempty"`

	Notes      string    `json:"notes,omitempty"`
	Sources    string    `json:"sources,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at,omitempty"`
}

type AgencyFilter struct {
	Category AgencyCategory
	Slug     string
	Query    string
}

type AgencyStats struct {
	TotalAgencies              int `json:"total_agencies" yaml:"total_agencies"`
	AgenciesWithLLM            int `json:"agencies_with_llm" yaml:"agencies_with_llm"`
	AgenciesWithCoding         int `json:"agencies_with_coding" yaml:"agencies_with_coding"`
	AgenciesCustomSolution     int `json:"agencies_custom_solution" yaml:"agencies_custom_solution"`
	AgenciesCommercialSolution int `json:"agencies_commercial_solution" yaml:"agencies_commercial_solution"`
	TotalMatches               int `json:"total_matches" yaml:"total_matches"`
	HighConfidenceMatches      int `json:"high_confidence_matches" yaml:"high_confidence_matches"`
}

var (
	slugStripPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugCollapsePattern = regexp.MustCompile(`[-\s]+`)
	llmNamePattern      = regexp.MustCompile(`['\x{2018}\x{2019}]([\p{L}\p{N}_\s-]+GPT|[\p{L}\p{N}_\s-]+Chat)[\x{2019}']`)
)

// AgencySlug derives the URL-safe identifier for an agency name.
func AgencySlug(name string) string {
	slug := strings.ToLower(name)
	slug = slugStripPattern.ReplaceAllString(slug, "")
	slug = slugCollapsePattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ExtractLLMName pulls a quoted tool name such as 'NIH Chat' or 'StateGPT'
// out of free-text notes. Returns "" when none is present.
func ExtractLLMName(notes string) string {
	if !strings.Contains(notes, "GPT") && !strings.Contains(notes, "Chat") {
		return ""
	}
	match := llmNamePattern.FindStringSubmatch(notes)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
