package authorization

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/middleware"
	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/service/authorization"
	"github.com/saudemente/clinic-api/pkg/httputil"
	"github.com/saudemente/clinic-api/pkg/validator"
)

type Handler struct {
	svc       *authorization.Service
	validator validator.Validator
}

func NewHandler(svc *authorization.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auths := r.Group("/authorizations")
	{
		auths.POST("", h.Create)
		auths.GET("", h.List)
		auths.GET("/:id", h.Get)
		auths.POST("/:id/approve", h.Approve)
		auths.POST("/:id/reject", h.Reject)
		auths.POST("/batch-approve", h.BatchApprove)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	auth, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, auth)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid authorization ID")
		return
	}

	auth, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, auth)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AuthorizationFilters{}
	if patientID := c.Query("patient_id"); patientID != "" {
		id, err := uuid.Parse(patientID)
		if err != nil {
			httputil.RespondBadRequest(c, "invalid patient ID")
			return
		}
		filters.PatientID = &id
	}
	if kind := c.Query("kind"); kind != "" {
		filters.Kind = model.AuthorizationKind(kind)
	}
	if c.Query("pending") == "true" {
		filters.PendingOnly = true
	}

	auths, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, auths)
}

func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid authorization ID")
		return
	}

	auth, err := h.svc.Approve(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, auth)
}

func (h *Handler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid authorization ID")
		return
	}

	if err := h.svc.Reject(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"rejected": true})
}

func (h *Handler) BatchApprove(c *gin.Context) {
	var req model.BatchApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	result := h.svc.BatchApprove(c.Request.Context(), &req, middleware.UserID(c))
	httputil.RespondWithSuccess(c, result)
}
