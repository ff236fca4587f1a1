package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
)

func (s *Server) handleListRules(c *gin.Context) {
	versions, err := s.rulesSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": versions})
}

func (s *Server) handleActiveRules(c *gin.Context) {
	active, err := s.rulesSvc.Active(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, active)
}

// handleCreateRules inserts version 1. A second create conflicts; rate
// changes go through the rates endpoint so versions stay immutable.
func (s *Server) handleCreateRules(c *gin.Context) {
	schedule, ok := bindSchedule(c)
	if !ok {
		return
	}

	created, err := s.rulesSvc.Create(c.Request.Context(), schedule)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"rules":    created,
		"warnings": s.validationSvc.ValidateRules(*created).Warnings,
	})
}

// handleUpdateRates deactivates the active version and creates version N+1.
func (s *Server) handleUpdateRates(c *gin.Context) {
	schedule, ok := bindSchedule(c)
	if !ok {
		return
	}

	next, err := s.rulesSvc.UpdateRates(c.Request.Context(), schedule)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"rules":    next,
		"warnings": s.validationSvc.ValidateRules(*next).Warnings,
	})
}

func bindSchedule(c *gin.Context) (rulesdomain.RateSchedule, bool) {
	var schedule rulesdomain.RateSchedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		AbortWithError(c, invalidRequestError())
		return schedule, false
	}
	return schedule, true
}
