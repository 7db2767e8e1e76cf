package billing

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"invoice-automation/backend/pkg/security"
)

type Handler struct {
	service Service
	links   *security.LinkSigner
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// WithLinkSigner makes the public accept and decline routes require a valid signature
func (h *Handler) WithLinkSigner(links *security.LinkSigner) *Handler {
	h.links = links
	return h
}

// RegisterRoutes mounts the authenticated billing routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.GET("/:id/pdf", h.InvoicePDF)
		invoices.GET("/:id/xlsx", h.InvoiceSpreadsheet)
		invoices.GET("/:id/csv", h.InvoiceCSV)
		invoices.POST("/:id/send", h.SendInvoice)
	}

	quotations := rg.Group("/quotations")
	{
		quotations.GET("/:id/pdf", h.QuotationPDF)
		quotations.POST("/:id/download", h.DownloadQuotation)
		quotations.POST("/:id/send", h.SendQuotation)
	}

	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/report", h.DashboardReport)
		dashboard.POST("/report/send", h.SendDashboardReport)
	}
}

// RegisterPublicRoutes mounts the links customers follow from quotation emails
func (h *Handler) RegisterPublicRoutes(r gin.IRouter) {
	r.GET("/quotations/:id/accept", h.AcceptQuotation)
	r.GET("/quotations/:id/decline", h.DeclineQuotation)
}

// DownloadOptionsRequest customises the quotation header
type DownloadOptionsRequest struct {
	HeaderType  string `json:"headerType"`
	HeaderTitle string `json:"headerTitle"`
	HeaderImage string `json:"headerImage"`
}

// SendRequest lists explicit recipients; empty means the customer email
type SendRequest struct {
	Recipients []string `json:"recipients"`
}

func (h *Handler) InvoicePDF(c *gin.Context) {
	file, err := h.service.InvoicePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) InvoiceSpreadsheet(c *gin.Context) {
	file, err := h.service.InvoiceSpreadsheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) InvoiceCSV(c *gin.Context) {
	file, err := h.service.InvoiceCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) QuotationPDF(c *gin.Context) {
	file, err := h.service.QuotationPDF(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) DownloadQuotation(c *gin.Context) {
	var req DownloadOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts, err := req.toRenderOptions()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := h.service.QuotationPDF(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sendFile(c, file)
}

func (r DownloadOptionsRequest) toRenderOptions() (*RenderOptions, error) {
	mode := HeaderMode(strings.TrimSpace(r.HeaderType))
	switch mode {
	case "":
		mode = HeaderDefault
	case HeaderDefault, HeaderCompanyHeader, HeaderCustomTitle, HeaderCustomImage:
	default:
		return nil, errors.New("unsupported headerType " + strconv.Quote(r.HeaderType))
	}

	opts := &RenderOptions{HeaderMode: mode, HeaderTitle: r.HeaderTitle}
	if r.HeaderImage != "" {
		opts.HeaderImage = ImagePayload(r.HeaderImage)
	}
	return opts, nil
}

func (h *Handler) SendInvoice(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SendInvoice(c.Request.Context(), c.Param("id"), req.Recipients); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email sent successfully"})
}

func (h *Handler) SendQuotation(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SendQuotation(c.Request.Context(), c.Param("id"), req.Recipients); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email sent successfully"})
}

func (h *Handler) DashboardReport(c *gin.Context) {
	file, err := h.service.DashboardReport(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) SendDashboardReport(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipients are required"})
		return
	}

	if err := h.service.EmailDashboardReport(c.Request.Context(), req.Recipients); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email sent successfully"})
}

func (h *Handler) AcceptQuotation(c *gin.Context) {
	h.respondToQuotation(c, true)
}

func (h *Handler) DeclineQuotation(c *gin.Context) {
	h.respondToQuotation(c, false)
}

func (h *Handler) respondToQuotation(c *gin.Context, accepted bool) {
	action := ActionDecline
	if accepted {
		action = ActionAccept
	}
	if h.links != nil && !h.links.Verify(c.Query("sig"), c.Param("id"), action) {
		h.logger.Warn("Rejected unsigned quotation link",
			zap.String("id", c.Param("id")),
			zap.String("action", action))
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired link"})
		return
	}

	if _, err := h.service.RespondToQuotation(c.Request.Context(), c.Param("id"), accepted); err != nil {
		h.respondError(c, err)
		return
	}

	page, err := ResponsePage(accepted)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// sendFile writes a generated file as an attachment
func sendFile(c *gin.Context, file *RenderedFile) {
	c.Header("Content-Disposition", "attachment; filename="+file.Name)
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNoRecipients), errors.Is(err, ErrMissingDocumentID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnsupportedFormat):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Billing request failed",
			zap.String("path", c.FullPath()),
			zap.String("id", c.Param("id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
