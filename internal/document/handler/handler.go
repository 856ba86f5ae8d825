package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quicksign/quicksign/internal/document/service"
	"github.com/quicksign/quicksign/internal/field"
	reqservice "github.com/quicksign/quicksign/internal/request/service"
	"github.com/quicksign/quicksign/pkg/logger"
)

// Handler exposes the document endpoints. Signer and signature routes under
// /api/documents/:id delegate to the workflow so signer state has one home.
type Handler struct {
	docs     *service.Service
	workflow *reqservice.Service
	fields   *field.Service
}

func New(docs *service.Service, workflow *reqservice.Service, fields *field.Service) *Handler {
	return &Handler{docs: docs, workflow: workflow, fields: fields}
}

func (h *Handler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	d := rg.Group("/api/documents")
	d.POST("/upload", auth, h.Upload)
	d.GET("", auth, h.List)
	d.GET("/:id", auth, h.Get)
	d.GET("/:id/content", h.Content)
	d.GET("/:id/download", auth, h.Download)
	d.POST("/:id/signers", auth, h.AddSigners)
	d.GET("/:id/signatures", h.ListSignatures)
	d.POST("/:id/signatures", h.RecordSignature)
	d.POST("/:id/fields", auth, h.AddField)
	d.GET("/:id/fields", h.ListFields)
}

func errStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, reqservice.ErrDocumentNotFound),
		errors.Is(err, reqservice.ErrRequestNotFound),
		errors.Is(err, reqservice.ErrSignerNotFound),
		errors.Is(err, field.ErrDocumentNotFound),
		errors.Is(err, field.ErrFieldNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrEmptyUpload),
		errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, reqservice.ErrInvalidSigners),
		errors.Is(err, field.ErrInvalidType):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, reqservice.ErrOutOfTurn),
		errors.Is(err, reqservice.ErrAlreadySigned),
		errors.Is(err, reqservice.ErrRequestNotActive):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

func abortWith(c *gin.Context, err error) {
	code, msg := errStatus(err)
	c.JSON(code, gin.H{"error": msg})
}

func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer f.Close()

	d, err := h.docs.Upload(c.Request.Context(), c.GetString("userId"),
		fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "File uploaded successfully", "document": d})
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.docs.ListByUploader(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": list})
}

func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	d, err := h.docs.Get(ctx, c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	p, err := h.workflow.ProjectDocument(ctx, d.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": d, "signers": p.Signers, "signatures": p.Signatures})
}

// Content streams the file inline. Public: the signing page embeds it for
// signers who have no account.
func (h *Handler) Content(c *gin.Context) {
	h.stream(c, false)
}

func (h *Handler) Download(c *gin.Context) {
	h.stream(c, true)
}

func (h *Handler) stream(c *gin.Context, attachment bool) {
	d, rc, err := h.docs.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", d.MIMEType)
	if attachment {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.OriginalName))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.Warnf("stream %s: %v", d.ID, err)
	}
}

func (h *Handler) AddSigners(c *gin.Context) {
	var req struct {
		Signers []reqservice.SignerInput `json:"signers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one signer is required"})
		return
	}
	r, err := h.workflow.AddSigners(c.Request.Context(), c.Param("id"), c.GetString("userId"), req.Signers)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signers added successfully", "request": r})
}

func (h *Handler) ListSignatures(c *gin.Context) {
	p, err := h.workflow.ProjectDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signatures": p.Signatures, "status": p.Status})
}

func (h *Handler) RecordSignature(c *gin.Context) {
	var req struct {
		SignerEmail   string `json:"signerEmail" binding:"required"`
		FieldID       string `json:"fieldId"`
		SignatureData string `json:"signatureData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signerEmail is required"})
		return
	}
	r, err := h.workflow.SignByEmail(c.Request.Context(), c.Param("id"), req.SignerEmail,
		reqservice.SignInput{FieldID: req.FieldID, SignatureData: req.SignatureData})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signature recorded", "requestStatus": r.Status})
}

func (h *Handler) AddField(c *gin.Context) {
	var spec field.Spec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := h.fields.Add(c.Request.Context(), c.Param("id"), spec)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"field": f})
}

func (h *Handler) ListFields(c *gin.Context) {
	fs, err := h.fields.ForDocument(c.Request.Context(), c.Param("id"), c.Query("signerEmail"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fs})
}
