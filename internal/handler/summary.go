// internal/handler/summary.go
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"paycheck-tracker/internal/finance"
	"paycheck-tracker/internal/period"
	"paycheck-tracker/internal/storage"
	"time"

	"github.com/gin-gonic/gin"
)

type SummaryHandler struct {
	store storage.RecordStorage
	loc   *time.Location
	now   func() time.Time
}

func NewSummaryHandler(store storage.RecordStorage, loc *time.Location) *SummaryHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SummaryHandler{store: store, loc: loc, now: time.Now}
}

func (h *SummaryHandler) Register(g *gin.RouterGroup) {
	g.GET("/summary", h.Summary)
	g.GET("/history", h.History)
	g.GET("/history/:month", h.Month)
	g.GET("/stream", h.Stream)
}

// periodParam reads ?period=, defaulting to the period of today.
func (h *SummaryHandler) periodParam(c *gin.Context) (period.Period, bool) {
	var q PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query"})
		return 0, false
	}
	if err := validateStruct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	if q.Period == "" {
		return period.Default(h.now().In(h.loc)), true
	}
	p, err := period.Parse(q.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return p, true
}

func (h *SummaryHandler) snapshot(c *gin.Context) (string, finance.Snapshot, bool) {
	uid, ok := userID(c)
	if !ok {
		return "", finance.Snapshot{}, false
	}
	snap, err := finance.LoadSnapshot(c.Request.Context(), h.store, uid)
	if err != nil {
		respondError(c, err, "Load snapshot failed", "user_id", uid)
		return "", finance.Snapshot{}, false
	}
	return uid, snap, true
}

// Summary godoc
// @Summary Balance of one pay period
// @Param period query string false "first or second"
// @Success 200 {object} finance.Summary
// @Router /api/v1/summary [get]
func (h *SummaryHandler) Summary(c *gin.Context) {
	p, ok := h.periodParam(c)
	if !ok {
		return
	}
	_, snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, finance.Summarize(snap, p, h.now().In(h.loc)))
}

// History godoc
// @Summary Monthly balances, newest first
// @Success 200 {array} finance.MonthlyBalance
// @Router /api/v1/history [get]
func (h *SummaryHandler) History(c *gin.Context) {
	_, snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, finance.MonthlyHistory(snap, h.loc))
}

// Month godoc
// @Summary Records of one calendar month
// @Param month path string true "Month in YYYY-MM format"
// @Success 200 {object} finance.MonthDetail
// @Router /api/v1/history/{month} [get]
func (h *SummaryHandler) Month(c *gin.Context) {
	var uri MonthURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid path"})
		return
	}
	if err := validateStruct(uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	k, err := finance.ParseMonthKey(uri.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, finance.DetailFor(snap, k, h.loc))
}

// Stream godoc
// @Summary Live summary as server-sent events
// @Param period query string false "first or second"
// @Produce text/event-stream
// @Router /api/v1/stream [get]
func (h *SummaryHandler) Stream(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	p, ok := h.periodParam(c)
	if !ok {
		return
	}

	tracker := finance.NewTracker(h.store, uid, finance.WithLocation(h.loc), finance.WithTrackerClock(h.now))
	if err := tracker.SetPeriod(p); err != nil {
		respondError(c, err, "Set period failed", "user_id", uid)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tracker.Run(ctx) }()

	select {
	case <-tracker.Ready():
	case err := <-done:
		if err != nil {
			respondError(c, err, "Load summary failed", "user_id", uid)
		}
		return
	case <-ctx.Done():
		return
	}

	slog.Info("Summary stream opened", "user_id", uid, "period", p)
	defer slog.Info("Summary stream closed", "user_id", uid)

	first := true
	c.Stream(func(w io.Writer) bool {
		if first {
			// the pending update is already part of the current summary
			first = false
			select {
			case <-tracker.Updates():
			default:
			}
			c.SSEvent("summary", tracker.Summary())
			return true
		}
		select {
		case sum := <-tracker.Updates():
			c.SSEvent("summary", sum)
			return true
		case err := <-done:
			if err != nil {
				slog.Error("Tracker stopped", "error", err, "user_id", uid)
				c.SSEvent("error", gin.H{"error": "stream interrupted"})
			}
			return false
		case <-ctx.Done():
			return false
		}
	})
}
