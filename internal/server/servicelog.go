package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	servicelogdomain "github.com/lubetrack/lubetrack/internal/servicelog/domain"
)

func (s *Server) RegisterService(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	var req servicelogdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.TenantID = id

	record, err := s.servicelogSvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) ListServices(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	q := servicelogdomain.ListQuery{
		LicensePlate: strings.TrimSpace(c.Query("license_plate")),
		From:         queryTime(c, "from"),
		To:           queryTime(c, "to"),
		Limit:        queryInt(c, "limit", 0),
		Offset:       queryInt(c, "offset", 0),
	}

	records, err := s.servicelogSvc.List(c.Request.Context(), id, q)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": records})
}

func (s *Server) GetServiceByID(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	recordID, ok := pathID(c, "recordId")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.servicelogSvc.Get(c.Request.Context(), tenantID, recordID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) UpdateService(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	recordID, ok := pathID(c, "recordId")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	var req servicelogdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.servicelogSvc.Update(c.Request.Context(), tenantID, recordID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) DeleteService(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	recordID, ok := pathID(c, "recordId")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.servicelogSvc.Delete(c.Request.Context(), tenantID, recordID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) GetDashboard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	dashboard, err := s.servicelogSvc.Dashboard(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
