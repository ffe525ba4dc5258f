package domain

import (
	"fmt"
	"sort"
)

// IneligibleReason explains why a message skipped relevance judgment
type IneligibleReason string

const (
	ReasonNone           IneligibleReason = ""
	ReasonDisabled       IneligibleReason = "disabled"
	ReasonNoProvider     IneligibleReason = "no_provider"
	ReasonNoGroup        IneligibleReason = "no_group"
	ReasonNotWhitelisted IneligibleReason = "not_whitelisted"
	ReasonEmptyText      IneligibleReason = "empty_text"
)

// GateConfig is the gate's view of the configuration
type GateConfig struct {
	Enabled      bool
	ProviderID   string
	PersonaName  string
	SystemPrompt string
	whitelist    map[string]struct{}
}

// NewGateConfig builds a gate configuration with the given whitelist
func NewGateConfig(enabled bool, providerID, personaName, systemPrompt string, whitelist []string) GateConfig {
	set := make(map[string]struct{}, len(whitelist))
	for _, id := range whitelist {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return GateConfig{
		Enabled:      enabled,
		ProviderID:   providerID,
		PersonaName:  personaName,
		SystemPrompt: systemPrompt,
		whitelist:    set,
	}
}

// IsWhitelisted checks if gating is configured for the group
func (c *GateConfig) IsWhitelisted(groupID string) bool {
	_, ok := c.whitelist[groupID]
	return ok
}

// Whitelist returns the whitelisted group IDs, sorted
func (c *GateConfig) Whitelist() []string {
	ids := make([]string, 0, len(c.whitelist))
	for id := range c.whitelist {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Eligibility checks whether messages from the group go through relevance judgment.
// Returns ReasonNone when they do.
func (c *GateConfig) Eligibility(groupID string) IneligibleReason {
	switch {
	case !c.Enabled:
		return ReasonDisabled
	case c.ProviderID == "":
		return ReasonNoProvider
	case groupID == "":
		return ReasonNoGroup
	case !c.IsWhitelisted(groupID):
		return ReasonNotWhitelisted
	}
	return ReasonNone
}

// Validate reports an incomplete configuration. An incomplete gate is
// inactive rather than broken, so callers log the error and carry on.
func (c *GateConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ProviderID == "" {
		return fmt.Errorf("%w: relevance_checker_provider_id is empty", ErrConfigIncomplete)
	}
	if len(c.whitelist) == 0 {
		return fmt.Errorf("%w: group_whitelist is empty", ErrConfigIncomplete)
	}
	return nil
}
