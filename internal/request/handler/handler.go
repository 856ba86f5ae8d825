package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quicksign/quicksign/internal/completion"
	docservice "github.com/quicksign/quicksign/internal/document/service"
	"github.com/quicksign/quicksign/internal/request/service"
	"github.com/quicksign/quicksign/pkg/logger"
)

// Handler exposes the signature request endpoints. The sign, decline, status
// and complete routes are public: signers act through emailed links and have
// no account.
type Handler struct {
	workflow *service.Service
	docs     *docservice.Service
	users    service.UserLookup

	// completion records persist to Mongo directly; empty URI disables them
	mongoURI  string
	mongoName string
}

func New(workflow *service.Service, docs *docservice.Service, users service.UserLookup, mongoURI, mongoName string) *Handler {
	return &Handler{workflow: workflow, docs: docs, users: users, mongoURI: mongoURI, mongoName: mongoName}
}

func (h *Handler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	r := rg.Group("/api/signature-requests")
	r.POST("", auth, h.Create)
	r.GET("/:id", h.Get)
	r.POST("/:id/sign/:signerId", h.Sign)
	r.POST("/:id/decline/:signerId", h.Decline)
	r.GET("/:id/status", h.Status)
	r.POST("/:id/complete", h.Complete)
	r.POST("/:id/cancel", auth, h.Cancel)
	rg.GET("/api/my-signature-requests", auth, h.Mine)
}

func abortWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrSignerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidSigners):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOutOfTurn),
		errors.Is(err, service.ErrAlreadySigned),
		errors.Is(err, service.ErrRequestNotActive),
		errors.Is(err, service.ErrDeclineNotAllowed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotRequester):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

type createRequest struct {
	DocumentID string                 `json:"documentId" binding:"required"`
	Signers    []service.SignerInput  `json:"signers" binding:"required"`
	Settings   *service.SettingsInput `json:"settings"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one signer is required"})
		return
	}
	r, err := h.workflow.Create(c.Request.Context(), req.DocumentID, c.GetString("userId"), req.Signers, req.Settings)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "signatureRequest": r})
}

// Get serves the signing page: the request plus enough document metadata to
// render it.
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := h.workflow.Get(ctx, c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	resp := gin.H{"request": r}
	if d, err := h.docs.Get(ctx, r.DocumentID); err == nil {
		resp["document"] = gin.H{
			"id":           d.ID,
			"originalName": d.OriginalName,
			"mimetype":     d.MIMEType,
			"status":       d.Status,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Sign(c *gin.Context) {
	var in service.SignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.workflow.Sign(c.Request.Context(), c.Param("id"), c.Param("signerId"), in)
	if err != nil {
		abortWith(c, err)
		return
	}
	sg := r.SignerByID(c.Param("signerId"))
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"signer":        gin.H{"id": sg.ID, "status": sg.Status, "signedAt": sg.SignedAt},
		"requestStatus": r.Status,
	})
}

func (h *Handler) Decline(c *gin.Context) {
	r, err := h.workflow.Decline(c.Request.Context(), c.Param("id"), c.Param("signerId"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requestStatus": r.Status})
}

func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	st, err := h.workflow.Status(ctx, id)
	if err == nil {
		c.JSON(http.StatusOK, st)
		return
	}
	if !errors.Is(err, service.ErrRequestNotFound) {
		abortWith(c, err)
		return
	}
	// unknown request: a stored completion record still answers the poll
	rec, recErr := completion.Load(ctx, h.mongoURI, h.mongoName, id)
	if recErr == nil && rec != nil {
		c.JSON(http.StatusOK, gin.H{
			"id":          id,
			"status":      rec.Status,
			"isCompleted": true,
			"completedAt": rec.CompletedAt,
		})
		return
	}
	abortWith(c, err)
}

type completeRequest struct {
	SignerEmail string     `json:"signerEmail"`
	SignerName  string     `json:"signerName"`
	CompletedAt *time.Time `json:"completedAt"`
}

func (h *Handler) Complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec := completion.NewRecord(c.Param("id"), req.SignerEmail, req.SignerName, req.CompletedAt)
	if err := completion.Save(c.Request.Context(), h.mongoURI, h.mongoName, rec); err != nil {
		logger.Warnf("save completion record for %s: %v", rec.RequestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save completion status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document completion saved successfully", "completion": rec})
}

func (h *Handler) Cancel(c *gin.Context) {
	r, err := h.workflow.Cancel(c.Request.Context(), c.Param("id"), c.GetString("userId"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requestStatus": r.Status})
}

func (h *Handler) Mine(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("userId")
	email := ""
	if h.users != nil {
		if u, err := h.users(ctx, userID); err == nil {
			email = u.Email
		}
	}
	out, err := h.workflow.ForUser(ctx, userID, email)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
