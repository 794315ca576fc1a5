// Package analysis produces qualification analyses and outreach drafts for candidate projects.
//
// Every operation has two strategies. The mock strategy is deterministic and offline:
// the same input always yields the same output. The provider strategy delegates to an
// external LLM and validates its JSON reply field by field. The strategy is chosen once,
// from Capabilities, before any call is made; a provider failure degrades to the mock
// result and is never returned to the caller.
package analysis

import (
	"strings"

	"github.com/ppiankov/leadradar/internal/model"
)

// Subscription plans
const (
	PlanFree       = "free"
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

var paidPlans = map[string]bool{
	PlanStarter:    true,
	PlanPro:        true,
	PlanEnterprise: true,
}

// Capabilities decides whether provider mode is available
type Capabilities struct {
	FeatureFlag   bool   // environment-level switch
	HasCredential bool   // a provider credential is configured
	Plan          string // caller's subscription plan
}

// CanUseRealAI requires the flag, a credential and a paid plan
func (c Capabilities) CanUseRealAI() bool {
	return c.FeatureFlag && c.HasCredential && paidPlans[strings.ToLower(strings.TrimSpace(c.Plan))]
}

// CapabilitiesFromConfig derives capabilities from configuration.
// Ollama runs locally and needs no API key; a base URL or model counts as its credential.
func CapabilitiesFromConfig(ai model.AIConfig) Capabilities {
	hasCredential := ai.APIKey != ""
	if strings.EqualFold(ai.Provider, "ollama") {
		hasCredential = ai.Model != "" || ai.BaseURL != ""
	}
	return Capabilities{
		FeatureFlag:   ai.Enabled,
		HasCredential: hasCredential,
		Plan:          ai.Plan,
	}
}
