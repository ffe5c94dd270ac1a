package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/http/middleware"
	"github.com/nurpe/fireops-orders/internal/model"
	"github.com/nurpe/fireops-orders/internal/schedule"
	"github.com/nurpe/fireops-orders/internal/service"
)

type Handler struct {
	projects      *service.ProjectService
	workOrders    *service.WorkOrderService
	payments      *service.PaymentService
	contracts     *service.ContractService
	certificates  *service.CertificateService
	notifications *service.NotificationService
	log           zerolog.Logger
}

func NewHandler(
	projects *service.ProjectService,
	workOrders *service.WorkOrderService,
	payments *service.PaymentService,
	contracts *service.ContractService,
	certificates *service.CertificateService,
	notifications *service.NotificationService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		projects:      projects,
		workOrders:    workOrders,
		payments:      payments,
		contracts:     contracts,
		certificates:  certificates,
		notifications: notifications,
		log:           log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/projects", h.createProject)
	protected.GET("/projects/:id", h.getProject)
	protected.POST("/projects/:id/approve", h.approveProject)
	protected.POST("/projects/:id/complete", h.completeProject)
	protected.POST("/projects/:id/cancel", h.cancelProject)
	protected.POST("/projects/:id/clone", h.cloneProject)
	protected.GET("/projects/:id/schedule/export", h.exportSchedule)
	protected.POST("/projects/:id/work-orders", h.createAdhocWorkOrder)
	protected.POST("/projects/:id/work-orders/:workOrderID/approve", h.approveAdhocWorkOrder)

	protected.GET("/work-orders/:id", h.getWorkOrder)
	protected.POST("/work-orders/:id/transition", h.transitionWorkOrder)
	protected.PATCH("/work-orders/:id/price", h.updateWorkOrderPrice)

	protected.POST("/payments/submit", h.submitPaymentProof)
	protected.POST("/payments/verify", h.verifyPayment)

	protected.POST("/contracts/:id/sign-end", h.signContractEnd)

	protected.GET("/certificates/:id", h.getCertificate)
	protected.GET("/certificates/:id/pdf", h.certificatePDF)
	protected.POST("/certificates/:id/file", h.uploadCertificateFile)

	protected.GET("/notifications", h.listNotifications)
}

type templateRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	WorkType      string  `json:"work_type"`
	ScheduledDate string  `json:"scheduled_date"`
	RecurringType string  `json:"recurring_type"`
}

type checklistRequest struct {
	Name      string            `json:"name" binding:"required"`
	Templates []templateRequest `json:"templates"`
}

type createProjectRequest struct {
	BranchID    string             `json:"branch_id" binding:"required"`
	ClientOrgID string             `json:"client_org_id" binding:"required"`
	Title       string             `json:"title" binding:"required"`
	StartDate   string             `json:"start_date" binding:"required"`
	EndDate     string             `json:"end_date"`
	AutoRenew   bool               `json:"auto_renew"`
	Checklists  []checklistRequest `json:"checklists"`
}

func (h *Handler) createProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch_id"})
		return
	}
	clientOrgID, err := uuid.Parse(req.ClientOrgID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_org_id"})
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	checklists := make([]service.ChecklistInput, 0, len(req.Checklists))
	for _, cl := range req.Checklists {
		templates := make([]schedule.Template, 0, len(cl.Templates))
		for _, tpl := range cl.Templates {
			scheduled, err := parseOptionalDate(tpl.ScheduledDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_date"})
				return
			}
			templates = append(templates, schedule.Template{
				Name:          tpl.Name,
				Description:   tpl.Description,
				Price:         tpl.Price,
				WorkType:      parseWorkType(tpl.WorkType),
				ScheduledDate: scheduled,
				RecurringType: parseRecurringType(tpl.RecurringType),
			})
		}
		checklists = append(checklists, service.ChecklistInput{Name: cl.Name, Templates: templates})
	}

	project, err := h.projects.CreateProject(c.Request.Context(), service.CreateProjectInput{
		BranchID:    branchID,
		ClientOrgID: clientOrgID,
		Title:       req.Title,
		StartDate:   startDate,
		EndDate:     endDate,
		AutoRenew:   req.AutoRenew,
		Checklists:  checklists,
		Principal:   principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) getProject(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	project, err := h.projects.GetProject(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) approveProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.projects.ApproveProject(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project":     result.Project,
		"contract_id": result.ContractID,
		"invoice_id":  result.InvoiceID,
	})
}

func (h *Handler) completeProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.CompleteProject(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type cancelProjectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req cancelProjectRequest
	_ = c.ShouldBindJSON(&req)

	project, err := h.projects.CancelProject(c.Request.Context(), id, req.Reason, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type cloneProjectRequest struct {
	Title     string `json:"title" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date"`
	AutoRenew bool   `json:"auto_renew"`
}

func (h *Handler) cloneProject(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req cloneProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	project, err := h.projects.CloneProject(c.Request.Context(), id, service.CloneProjectInput{
		Title:     req.Title,
		StartDate: startDate,
		EndDate:   endDate,
		AutoRenew: req.AutoRenew,
	}, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) exportSchedule(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.projects.ExportSchedule(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

type createAdhocRequest struct {
	ChecklistID   string  `json:"checklist_id" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	WorkType      string  `json:"work_type"`
	ScheduledDate string  `json:"scheduled_date"`
	RequestID     string  `json:"request_id"`
}

func (h *Handler) createAdhocWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req createAdhocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checklistID, err := uuid.Parse(req.ChecklistID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checklist_id"})
		return
	}
	scheduled, err := parseOptionalDate(req.ScheduledDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_date"})
		return
	}
	var requestID *uuid.UUID
	if strings.TrimSpace(req.RequestID) != "" {
		parsed, err := uuid.Parse(req.RequestID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request_id"})
			return
		}
		requestID = &parsed
	}

	wo, err := h.workOrders.CreateAdhoc(c.Request.Context(), service.CreateAdhocInput{
		ProjectID:       projectID,
		ChecklistID:     checklistID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		WorkType:        parseWorkType(req.WorkType),
		ScheduledDate:   scheduled,
		LinkedRequestID: requestID,
		Principal:       principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

func (h *Handler) approveAdhocWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	workOrderID, err := uuid.Parse(c.Param("workOrderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work order id"})
		return
	}

	wo, err := h.projects.ApproveAdhocWorkOrder(c.Request.Context(), projectID, workOrderID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

func (h *Handler) getWorkOrder(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	wo, err := h.workOrders.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type transitionRequest struct {
	Stage string `json:"stage" binding:"required"`
}

func (h *Handler) transitionWorkOrder(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wo, err := h.workOrders.Transition(c.Request.Context(), id,
		model.WorkOrderStage(strings.ToUpper(strings.TrimSpace(req.Stage))), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type updatePriceRequest struct {
	Price float64 `json:"price"`
}

func (h *Handler) updateWorkOrderPrice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wo, err := h.workOrders.UpdatePrice(c.Request.Context(), id, req.Price, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

type submitPaymentRequest struct {
	WorkOrderIDs []string `json:"work_order_ids" binding:"required"`
	ProofURL     string   `json:"proof_url" binding:"required"`
	ProofType    string   `json:"proof_type" binding:"required"`
}

func (h *Handler) submitPaymentProof(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, err := parseIDs(req.WorkOrderIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work order ids"})
		return
	}

	err = h.payments.SubmitProof(c.Request.Context(), service.SubmitProofInput{
		WorkOrderIDs: ids,
		ProofURL:     req.ProofURL,
		ProofType:    model.ProofType(strings.ToLower(req.ProofType)),
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending_verification"})
}

type verifyPaymentRequest struct {
	WorkOrderIDs []string `json:"work_order_ids" binding:"required"`
	SignatureURL string   `json:"signature_url"`
}

func (h *Handler) verifyPayment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, err := parseIDs(req.WorkOrderIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid work order ids"})
		return
	}

	err = h.payments.VerifyPayment(c.Request.Context(), service.VerifyPaymentInput{
		WorkOrderIDs: ids,
		SignatureURL: req.SignatureURL,
		Principal:    principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid"})
}

type signContractEndRequest struct {
	SignatureURL string `json:"signature_url"`
}

func (h *Handler) signContractEnd(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req signContractEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.SignEnd(c.Request.Context(), id, req.SignatureURL, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) getCertificate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	cert, err := h.certificates.GetCertificate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

func (h *Handler) certificatePDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.certificates.RenderPDF(c.Request.Context(), id, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) uploadCertificateFile(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	cert, err := h.certificates.AttachFile(c.Request.Context(), id, data, fileHeader.Filename, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	notifications, err := h.notifications.List(c.Request.Context(), principal, 50)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseWorkType(raw string) model.WorkType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "INSPECTION":
		return model.WorkTypeInspection
	case "MAINTENANCE":
		return model.WorkTypeMaintenance
	case "INSTALLATION":
		return model.WorkTypeInstallation
	default:
		return model.WorkTypeOther
	}
}

func parseRecurringType(raw string) model.RecurringType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "MONTHLY":
		return model.RecurringMonthly
	case "QUARTERLY":
		return model.RecurringQuarterly
	default:
		return model.RecurringOnce
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
