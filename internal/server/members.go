package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/lubetrack/lubetrack/internal/member/domain"
)

func (s *Server) CreateMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	var req memberdomain.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.TenantID = id

	member, err := s.memberSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (s *Server) ListMembers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	members, err := s.memberSvc.List(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) DeactivateMember(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	member, err := s.memberSvc.Deactivate(c.Request.Context(), tenantID, memberID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (s *Server) ActivateMember(c *gin.Context) {
	tenantID, ok := pathID(c, "id")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}
	memberID, ok := pathID(c, "memberId")
	if !ok {
		AbortWithError(c, invalidRequestError())
		return
	}

	member, err := s.memberSvc.Activate(c.Request.Context(), tenantID, memberID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}
