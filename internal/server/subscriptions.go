package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
)

func (s *Server) GetEntitlement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	ent, err := s.subscriptionSvc.Entitlement(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ent)
}

func (s *Server) GetTrialState(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	state, err := s.subscriptionSvc.TrialState(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type planChangeRequest struct {
	PlanID      string                   `json:"plan_id" binding:"required"`
	BillingType tenantdomain.BillingType `json:"billing_type"`
}

func (s *Server) RequestPlanChange(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	var req planChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.subscriptionSvc.RequestPlanChange(c.Request.Context(), id, req.PlanID, req.BillingType)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

type purchaseCreditsRequest struct {
	AdditionalServices int `json:"additional_services" binding:"required"`
}

func (s *Server) PurchaseCredits(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	var req purchaseCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.subscriptionSvc.PurchaseCredits(c.Request.Context(), id, req.AdditionalServices)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) GetCreditEligibility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	eligibility, err := s.subscriptionSvc.CreditEligibility(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, eligibility)
}

type renewPlanRequest struct {
	TotalServices      int  `json:"total_services" binding:"required"`
	ResetUsageCounters bool `json:"reset_usage_counters"`
}

func (s *Server) RenewPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	var req renewPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.subscriptionSvc.Renew(c.Request.Context(), id, req.TotalServices, req.ResetUsageCounters)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	canceled, err := s.paymentSvc.CancelSubscription(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canceled": canceled})
}
