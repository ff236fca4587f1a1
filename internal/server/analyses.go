package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	fpdomain "github.com/courierpay/courierpay/internal/fingerprint/domain"
	"github.com/courierpay/courierpay/internal/observability/metrics"
	"go.uber.org/zap"
)

type saveAnalysisRequest struct {
	UserID        string                      `json:"user_id" binding:"required"`
	PeriodStart   string                      `json:"period_start" binding:"required"`
	PeriodEnd     string                      `json:"period_end" binding:"required"`
	MergeStrategy string                      `json:"merge_strategy"`
	MergeWith     string                      `json:"merge_with"`
	Entries       []analysisdomain.DailyEntry `json:"entries" binding:"required"`
}

// handleSaveAnalysis validates and persists a period's daily entries. When
// merge_with names a prior analysis, its entries are combined with the
// incoming ones under the requested merge strategy before saving. A duplicate
// fingerprint never blocks the save; it rides back as part of the comparison
// so the caller decides what to do with it.
func (s *Server) handleSaveAnalysis(c *gin.Context) {
	var req saveAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	strategy, err := fpdomain.ParseMergeStrategy(req.MergeStrategy)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	periodStart, periodEnd, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	entries := req.Entries
	if req.MergeWith != "" {
		_, stored, err := s.analysisSvc.Get(ctx, req.MergeWith)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		base := make([]analysisdomain.DailyEntry, 0, len(stored))
		for _, entry := range stored {
			base = append(base, *entry)
		}
		entries = fpdomain.ApplyMerge(strategy, base, entries)
	}

	rules, err := s.rulesSvc.ActiveAt(ctx, periodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entryRefs := make([]*analysisdomain.DailyEntry, 0, len(entries))
	for i := range entries {
		entryRefs = append(entryRefs, &entries[i])
	}

	validationResult := s.validationSvc.ValidateAnalysis(entryRefs, *rules, periodStart, periodEnd)
	if !validationResult.OK() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"validation": validationResult})
		return
	}

	fp := s.fingerprintSvc.ComputeManualEntries(entries)
	comparison, err := s.fingerprintSvc.Record(ctx, req.UserID, fpdomain.KindManualEntry, fp, nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if comparison.Status == fpdomain.StatusDuplicate || comparison.Status == fpdomain.StatusUnchanged {
		metrics.Processing().IncDuplicate()
		s.log.Info("duplicate submission detected",
			zap.String("user_id", req.UserID),
			zap.String("status", string(comparison.Status)),
		)
	}

	analysis := &analysisdomain.Analysis{
		UserID:      req.UserID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Fingerprint: fp.Digest,
	}
	saved, err := s.analysisSvc.Save(ctx, analysis, entryRefs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"analysis":   saved,
		"entries":    entryRefs,
		"validation": validationResult,
		"comparison": comparison,
	})
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		AbortWithError(c, newValidationError("user_id", "required", "user_id is required"))
		return
	}
	limit := intQuery(c, "limit", 20)

	analyses, err := s.analysisSvc.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": analyses})
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	analysis, entries, err := s.analysisSvc.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
		"entries":  entries,
	})
}

type updatePaidRequest struct {
	PaidPence int64 `json:"paid_pence"`
}

func (s *Server) handleUpdatePaid(c *gin.Context) {
	var req updatePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	date, ok := bindEntryDate(c)
	if !ok {
		return
	}

	entry, err := s.analysisSvc.UpdateEntryPaidAmount(c.Request.Context(), c.Param("reference"), date, req.PaidPence)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type updatePickupRequest struct {
	PickupCount      int   `json:"pickup_count"`
	PickupTotalPence int64 `json:"pickup_total_pence"`
}

func (s *Server) handleUpdatePickup(c *gin.Context) {
	var req updatePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	date, ok := bindEntryDate(c)
	if !ok {
		return
	}

	entry, err := s.analysisSvc.UpdateEntryPickupData(c.Request.Context(), c.Param("reference"), date, req.PickupCount, req.PickupTotalPence)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type validateAnalysisRequest struct {
	PeriodStart string                      `json:"period_start" binding:"required"`
	PeriodEnd   string                      `json:"period_end" binding:"required"`
	Entries     []analysisdomain.DailyEntry `json:"entries" binding:"required"`
}

// handleValidateAnalysis runs the business-rule checks without persisting
// anything. It always answers 200; errors and warnings live in the body.
func (s *Server) handleValidateAnalysis(c *gin.Context) {
	var req validateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	periodStart, periodEnd, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rules, err := s.rulesSvc.ActiveAt(c.Request.Context(), periodEnd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entryRefs := make([]*analysisdomain.DailyEntry, 0, len(req.Entries))
	for i := range req.Entries {
		entryRefs = append(entryRefs, &req.Entries[i])
	}
	c.JSON(http.StatusOK, s.validationSvc.ValidateAnalysis(entryRefs, *rules, periodStart, periodEnd))
}

func parsePeriod(start, end string) (time.Time, time.Time, error) {
	periodStart, err := time.ParseInLocation(time.DateOnly, start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, newValidationError("period_start", "invalid_date", "period_start must be YYYY-MM-DD")
	}
	periodEnd, err := time.ParseInLocation(time.DateOnly, end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, newValidationError("period_end", "invalid_date", "period_end must be YYYY-MM-DD")
	}
	if periodEnd.Before(periodStart) {
		return time.Time{}, time.Time{}, newValidationError("period_end", "invalid_period", "period_end precedes period_start")
	}
	return periodStart, periodEnd, nil
}

func bindEntryDate(c *gin.Context) (time.Time, bool) {
	date, err := time.ParseInLocation(time.DateOnly, c.Param("date"), time.UTC)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "date must be YYYY-MM-DD"))
		return time.Time{}, false
	}
	return date, true
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
