package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/saudemente/clinic-api/internal/model"
	"github.com/saudemente/clinic-api/internal/service/patient"
	"github.com/saudemente/clinic-api/internal/service/report"
	"github.com/saudemente/clinic-api/pkg/httputil"
	"github.com/saudemente/clinic-api/pkg/validator"
)

type Handler struct {
	svc       *patient.Service
	reportSvc *report.Service
	validator validator.Validator
}

func NewHandler(svc *patient.Service, reportSvc *report.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, reportSvc: reportSvc, validator: v}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.Create)
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
		patients.PUT("/:id", h.Update)
		patients.POST("/:id/finalize", h.Finalize)
		patients.GET("/:id/report-release", h.ReportReleaseStatus)
		patients.POST("/:id/report-release", h.ReleaseReport)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid patient ID")
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.PatientFilters{}
	if doctorID := c.Query("doctor_id"); doctorID != "" {
		id, err := uuid.Parse(doctorID)
		if err != nil {
			httputil.RespondBadRequest(c, "invalid doctor ID")
			return
		}
		filters.DoctorID = &id
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.PatientStatus(status)
	}

	patients, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid patient ID")
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

// Finalize closes the patient's treatment package.
func (h *Handler) Finalize(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid patient ID")
		return
	}

	p, err := h.svc.Finalize(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) ReportReleaseStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid patient ID")
		return
	}

	status, err := h.reportSvc.ReleaseStatus(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, status)
}

func (h *Handler) ReleaseReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondBadRequest(c, "invalid patient ID")
		return
	}

	status, err := h.reportSvc.Release(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, status)
}
