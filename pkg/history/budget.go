package history

import (
	"sort"
	"strings"
)

// Model identifiers with a known context budget
const (
	ModelGPT4              = "gpt-4"
	ModelGPT40613          = "gpt-4-0613"
	ModelGPT432k           = "gpt-4-32k"
	ModelGPT432k0613       = "gpt-4-32k-0613"
	ModelGPT35Turbo        = "gpt-3.5-turbo"
	ModelGPT35Turbo0613    = "gpt-3.5-turbo-0613"
	ModelGPT35Turbo16k     = "gpt-3.5-turbo-16k"
	ModelGPT35Turbo16k0613 = "gpt-3.5-turbo-16k-0613"
)

// DefaultBudget applies to any model not in the table
const DefaultBudget = 3500

// Budgets leave headroom below each model's context window for the completion.
var modelBudgets = map[string]int{
	ModelGPT4:              7500,
	ModelGPT40613:          7500,
	ModelGPT432k:           31050,
	ModelGPT432k0613:       31500,
	ModelGPT35Turbo:        3500,
	ModelGPT35Turbo0613:    3500,
	ModelGPT35Turbo16k:     15500,
	ModelGPT35Turbo16k0613: 15500,
}

// BudgetForModel returns the token budget for a model identifier.
// Unknown or malformed identifiers get DefaultBudget; this never fails.
func BudgetForModel(model string) int {
	if budget, ok := modelBudgets[strings.ToLower(strings.TrimSpace(model))]; ok {
		return budget
	}
	return DefaultBudget
}

// KnownModels lists the model identifiers with a dedicated budget
func KnownModels() []string {
	models := make([]string, 0, len(modelBudgets))
	for m := range modelBudgets {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
