package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type providerRule struct {
	provider string
	keywords []string
}

// providerRules is scanned in order and the first provider with a matching
// keyword wins. Reordering changes results.
var providerRules = []providerRule{
	{provider: "Microsoft", keywords: []string{"azure", "microsoft", "microsoft 365", "m365", "office 365", "o365", "copilot"}},
	{provider: "Amazon", keywords: []string{"aws", "amazon", "govcloud"}},
	{provider: "Google", keywords: []string{"google", "gcp", "google cloud"}},
	{provider: "IBM", keywords: []string{"ibm", "watson"}},
	{provider: "Oracle", keywords: []string{"oracle"}},
	{provider: "Salesforce", keywords: []string{"salesforce"}},
}

var productKeywords = []string{"openai", "gpt", "bedrock", "sagemaker", "copilot", "vertex"}

func detectProvider(searchText string) (string, bool) {
	for _, rule := range providerRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(searchText, keyword) {
				return rule.provider, true
			}
		}
	}
	return "", false
}

func isInternallyHosted(solutionType string) bool {
	lower := strings.ToLower(solutionType)
	if !strings.Contains(lower, "custom") || !strings.Contains(lower, "hosted") {
		return false
	}
	return strings.Contains(lower, "internally hosted") || strings.Contains(lower, "non-cloud")
}

// MatchAgency links one agency record to catalog entries. Entries are
// considered in the given order; no provider signal yields no matches.
func MatchAgency(record domain.AgencyUsageRecord, entries []domain.CatalogEntry) []domain.AgencyServiceMatch {
	if isInternallyHosted(record.SolutionType) {
		return nil
	}

	searchText := strings.ToLower(record.SolutionType + " " + record.Notes)
	provider, ok := detectProvider(searchText)
	if !ok {
		return nil
	}
	providerLower := strings.ToLower(provider)

	var (
		matches []domain.AgencyServiceMatch
		pending []domain.AgencyServiceMatch
	)
	for _, entry := range entries {
		if !strings.Contains(strings.ToLower(entry.Provider), providerLower) {
			continue
		}

		match := domain.AgencyServiceMatch{
			AgencyID:   record.ID,
			EntryID:    entry.ExternalID,
			Provider:   entry.Provider,
			EntryName:  entry.Offering,
			Confidence: domain.ConfidenceMedium,
			Reason:     fmt.Sprintf("Provider match: %s mentioned in solution type", provider),
		}
		if keyword, ok := escalationKeyword(searchText, entry.SubServices); ok {
			match.Confidence = domain.ConfidenceHigh
			match.Reason = fmt.Sprintf("Direct service match: '%s' found in both agency data and product services", keyword)
		}

		if match.Confidence == domain.ConfidenceHigh {
			matches = append(matches, match)
			continue
		}
		if strings.Contains(strings.ToLower(entry.Offering), "gov") {
			// a gov variant replaces the plain provider matches seen so far
			return append(matches, match)
		}
		pending = append(pending, match)
	}
	return append(matches, pending...)
}

// escalationKeyword reports the last product keyword, in table order, that
// appears in the search text and in one of the entry's sub-service names.
func escalationKeyword(searchText string, services []string) (string, bool) {
	found := ""
	for _, keyword := range productKeywords {
		if !strings.Contains(searchText, keyword) {
			continue
		}
		for _, service := range services {
			if strings.Contains(strings.ToLower(service), keyword) {
				found = keyword
				break
			}
		}
	}
	return found, found != ""
}
