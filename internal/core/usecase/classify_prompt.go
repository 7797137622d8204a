package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

const (
	maxPromptSubServices = 100
	maxDescriptionChars  = 1000
)

func buildClassificationPrompt(entry domain.CatalogEntry) string {
	services := entry.SubServices
	if len(services) > maxPromptSubServices {
		services = services[:maxPromptSubServices]
	}

	var serviceList strings.Builder
	for _, service := range services {
		serviceList.WriteString("* ")
		serviceList.WriteString(strings.TrimSpace(service))
		serviceList.WriteString("\n")
	}

	return fmt.Sprintf(`Review this FedRAMP cloud offering and decide which of its services relate to AI, Generative AI, or Large Language Models.

Offering:
Provider: %s
Product: %s
Description: %s

Services:
%s
Return a JSON array. Add one object per service that relates to AI, Generative AI, or LLMs, with keys:
"service_name" (string): the service name exactly as listed above
"has_ai" (boolean): true for AI, machine learning, or ML services
"has_genai" (boolean): true only for Generative AI services
"has_llm" (boolean): true only for services built on Large Language Models
"relevant_excerpt" (string): one or two sentences explaining why the service is AI related

Leave out services that are not AI related, including general cloud infrastructure.
If no service qualifies, return an empty array: []
Return only the JSON array.

Example:
[{"service_name": "Amazon Bedrock", "has_ai": true, "has_genai": true, "has_llm": true, "relevant_excerpt": "Amazon Bedrock is a managed service for building generative AI applications on foundation models, including large language models."}]
`, entry.Provider, entry.Offering, truncateRunes(entry.Description, maxDescriptionChars), serviceList.String())
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
