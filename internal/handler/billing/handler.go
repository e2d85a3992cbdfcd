package billing

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/middleware"
	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/service/billing"
	"github.com/saudemente/clinic-api/pkg/httputil"
)

type Handler struct {
	svc   *billing.Service
	cache *middleware.ResponseCache
}

func NewHandler(svc *billing.Service, cache *middleware.ResponseCache) *Handler {
	return &Handler{svc: svc, cache: cache}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	b := r.Group("/billing")
	{
		b.GET("/reconciliation", h.Reconcile)
		b.GET("/summaries", h.Summaries)
		b.GET("/teams/:id/history", h.TeamHistory)
		b.GET("/doctors/:id/history", h.DoctorHistory)
		b.POST("/doctors/:id/payouts/:month/mark-paid", h.MarkPaid)
	}
}

// Reconcile recomputes and returns the consolidated report for a month.
// Omitting the month targets the current one.
func (h *Handler) Reconcile(c *gin.Context) {
	month := model.ReferenceMonth(c.Query("month"))

	report, err := h.svc.Reconcile(c.Request.Context(), month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.invalidateCache()
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) Summaries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	summaries, err := h.svc.Summaries(c.Request.Context(), limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summaries)
}

func (h *Handler) TeamHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid team ID")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.svc.TeamPayoutHistory(c.Request.Context(), id, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

func (h *Handler) DoctorHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid doctor ID")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.svc.ExternalPayoutHistory(c.Request.Context(), id, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, entries)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid doctor ID")
		return
	}
	month := model.ReferenceMonth(c.Param("month"))

	rows, err := h.svc.MarkExternalPayoutsPaid(c.Request.Context(), id, month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.invalidateCache()
	httputil.RespondWithSuccess(c, gin.H{"marked_paid": rows})
}

// Cached ledger reads must not outlive a write that changed ledger state.
func (h *Handler) invalidateCache() {
	if h.cache == nil {
		return
	}
	h.cache.Invalidate()
}
