package model

import "fmt"

// PlanTier is the closed set of subscription levels.
type PlanTier string

const (
	PlanFree       PlanTier = "free"
	PlanStarter    PlanTier = "starter"
	PlanPro        PlanTier = "pro"
	PlanEnterprise PlanTier = "enterprise"
)

// ParsePlanTier rejects unknown tier strings at the boundary instead of
// defaulting somewhere deep inside business logic.
func ParsePlanTier(s string) (PlanTier, error) {
	switch PlanTier(s) {
	case PlanFree, PlanStarter, PlanPro, PlanEnterprise:
		return PlanTier(s), nil
	}
	return "", fmt.Errorf("unknown plan tier %q", s)
}

// Unlimited reports whether the tier skips minute metering entirely.
func (t PlanTier) Unlimited() bool {
	return t == PlanPro || t == PlanEnterprise
}

// DefaultMinutesLimit is the monthly minute allotment assigned when a plan
// change event does not carry an explicit limit.
func DefaultMinutesLimit(t PlanTier) int {
	switch t {
	case PlanFree:
		return 100
	case PlanStarter:
		return 1000
	default:
		// Unlimited tiers keep a high sentinel so reporting still has a number.
		return 999999
	}
}
