package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/lubetrack/lubetrack/internal/payment/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
)

type checkoutRequest struct {
	PlanID      string                   `json:"plan_id" binding:"required"`
	BillingType tenantdomain.BillingType `json:"billing_type"`
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.paymentSvc.CreateSession(c.Request.Context(), paymentdomain.CreateSessionRequest{
		TenantID:    id,
		PlanID:      req.PlanID,
		BillingType: req.BillingType,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.paymentSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		// Redeliveries of processed events acknowledge cleanly so the gateway
		// stops retrying.
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
