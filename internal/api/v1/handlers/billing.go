package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"videosplit/internal/api/errors"
	"videosplit/internal/api/middleware"
	"videosplit/internal/api/v1/dto"
	"videosplit/internal/app/billing"
)

// BillingHandler receives normalized billing events from the provider
// adapter. Not exposed to end users; the route is mounted behind the
// deployment's internal network boundary.
type BillingHandler struct {
	processor *billing.Processor
}

func NewBillingHandler(processor *billing.Processor) *BillingHandler {
	return &BillingHandler{processor: processor}
}

// PlanChanged handles POST /api/v1/billing/plan-changed
func (h *BillingHandler) PlanChanged(c *gin.Context) {
	var req dto.PlanChangedRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	err := h.processor.Apply(billing.PlanChanged{
		AccountID:          req.AccountID,
		PlanTier:           req.PlanTier,
		MinutesLimit:       req.MinutesLimit,
		SubscriptionStatus: req.SubscriptionStatus,
		CancelAtPeriodEnd:  req.CancelAtPeriodEnd,
	})
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}
