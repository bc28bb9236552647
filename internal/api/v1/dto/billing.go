package dto

// PlanChangedRequest is the normalized billing webhook body. The billing
// provider's raw events are translated to this shape before reaching the API.
type PlanChangedRequest struct {
	AccountID          int64  `json:"account_id" binding:"required,min=1"`
	PlanTier           string `json:"plan_tier" binding:"required"`
	MinutesLimit       int    `json:"minutes_limit" binding:"omitempty,min=1"`
	SubscriptionStatus string `json:"subscription_status" binding:"omitempty"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}
