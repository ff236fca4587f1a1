package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/money"
	"github.com/courierpay/courierpay/internal/payment"
)

type dailyPaymentRequest struct {
	Date             string `json:"date" binding:"required"`
	ConsignmentCount int    `json:"consignment_count"`
	PickupCount      int    `json:"pickup_count"`
	PickupTotalPence int64  `json:"pickup_total_pence"`
	PaidPence        int64  `json:"paid_pence"`
}

// handleDailyPayment computes one day's expected pay from the rules version
// valid on that date.
func (s *Server) handleDailyPayment(c *gin.Context) {
	var req dailyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	date, err := time.ParseInLocation(time.DateOnly, req.Date, time.UTC)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD"))
		return
	}

	count, err := money.NewConsignmentCount(req.ConsignmentCount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rules, err := s.rulesSvc.ActiveAt(c.Request.Context(), date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entry := payment.CalculateDaily(
		*rules,
		date,
		count,
		req.PickupCount,
		money.FromPence(req.PickupTotalPence),
		money.FromPence(req.PaidPence),
	)
	c.JSON(http.StatusOK, gin.H{
		"rules_version": rules.Version,
		"entry":         entry,
		"status":        entry.StatusWithin(s.extractionCfg.Current().BalanceTolerance),
	})
}

type weeklyStatsRequest struct {
	Entries []analysisdomain.DailyEntry `json:"entries" binding:"required"`
}

// handleWeeklyStats aggregates submitted entries over working days.
func (s *Server) handleWeeklyStats(c *gin.Context) {
	var req weeklyStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entries := make([]*analysisdomain.DailyEntry, 0, len(req.Entries))
	for i := range req.Entries {
		entries = append(entries, &req.Entries[i])
	}
	c.JSON(http.StatusOK, payment.WeeklyStats(entries))
}
