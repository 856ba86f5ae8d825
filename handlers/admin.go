package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quicksign/quicksign/internal/document"
	docservice "github.com/quicksign/quicksign/internal/document/service"
	"github.com/quicksign/quicksign/internal/field"
	"github.com/quicksign/quicksign/internal/models"
	"github.com/quicksign/quicksign/internal/request"
	reqservice "github.com/quicksign/quicksign/internal/request/service"
	"github.com/quicksign/quicksign/internal/users"
	"github.com/quicksign/quicksign/internal/verification"
	"github.com/quicksign/quicksign/pkg/logger"
)

func publicUser(u *models.User) gin.H {
	return gin.H{
		"id":            u.ID,
		"fullName":      u.FullName,
		"email":         u.Email,
		"plan":          u.Plan,
		"emailVerified": u.EmailVerified,
		"isAdmin":       u.IsAdmin,
		"createdAt":     u.CreatedAt,
	}
}

// AdminHandler serves the admin console and dashboard statistics.
type AdminHandler struct {
	users    *users.Service
	docs     *docservice.Service
	workflow *reqservice.Service
	fields   *field.Service
	pending  verification.Counter // nil when the verification store cannot count
}

func NewAdminHandler(u *users.Service, d *docservice.Service, w *reqservice.Service, f *field.Service, pending verification.Counter) *AdminHandler {
	return &AdminHandler{users: u, docs: d, workflow: w, fields: f, pending: pending}
}

func (h *AdminHandler) Register(rg *gin.RouterGroup, auth, admin gin.HandlerFunc) {
	rg.GET("/api/dashboard/stats", auth, h.DashboardStats)

	a := rg.Group("/api/admin", auth, admin)
	a.GET("/users", h.ListUsers)
	a.GET("/stats", h.SystemStats)
	a.DELETE("/users/:id", h.DeleteUser)
	a.PUT("/users/:id/plan", h.UpdatePlan)
}

func (h *AdminHandler) DashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("userId")
	docs, err := h.docs.ListByUploader(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}
	total, completed, pending := len(docs), 0, 0
	signatures := 0
	for _, d := range docs {
		switch d.Status {
		case document.StatusCompleted:
			completed++
		case document.StatusPendingSignatures:
			pending++
		}
		p, err := h.workflow.ProjectDocument(ctx, d.ID)
		if err == nil {
			signatures += len(p.Signatures)
		}
	}
	rate := 0
	if total > 0 {
		rate = completed * 100 / total
	}
	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"totalDocuments":     total,
		"completedDocuments": completed,
		"pendingDocuments":   pending,
		"totalSignatures":    signatures,
		"completionRate":     rate,
	}})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, u := range list {
		out = append(out, publicUser(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *AdminHandler) SystemStats(c *gin.Context) {
	ctx := c.Request.Context()
	userList, err := h.users.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}
	docs, err := h.docs.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}
	requests, err := h.workflow.All(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}

	plans := map[string]int{"free": 0, "pro": 0, "enterprise": 0}
	for _, u := range userList {
		plans[u.Plan]++
	}
	status := map[string]int{"uploaded": 0, "pending": 0, "completed": 0}
	for _, d := range docs {
		switch d.Status {
		case document.StatusUploaded:
			status["uploaded"]++
		case document.StatusPendingSignatures:
			status["pending"]++
		case document.StatusCompleted:
			status["completed"]++
		}
	}
	signatures := 0
	for _, r := range requests {
		for i := range r.Signers {
			if r.Signers[i].Status == request.SignerSigned {
				signatures++
			}
		}
	}
	pendingVerifications := -1
	if h.pending != nil {
		pendingVerifications = h.pending.Count(ctx)
	}

	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"totalUsers":           len(userList),
		"totalDocuments":       len(docs),
		"totalSignatures":      signatures,
		"pendingVerifications": pendingVerifications,
		"usersByPlan":          plans,
		"documentsStatus":      status,
	}})
}

// DeleteUser removes an account plus its documents, fields and signature
// requests. Self-deletion is rejected.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	targetID := c.Param("id")
	if targetID == c.GetString("userId") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}
	if _, err := h.users.GetByID(ctx, targetID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err := h.users.Delete(ctx, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	docs, err := h.docs.ListByUploader(ctx, targetID)
	if err == nil {
		for _, d := range docs {
			if err := h.fields.RemoveForDocument(ctx, d.ID); err != nil {
				logger.Warnf("cascade delete fields of %s: %v", d.ID, err)
			}
			if err := h.docs.Delete(ctx, d.ID); err != nil {
				logger.Warnf("cascade delete document %s: %v", d.ID, err)
			}
		}
	}
	if removed, err := h.workflow.DeleteByRequester(ctx, targetID); err == nil && removed > 0 {
		logger.Infof("removed %d signature request(s) of deleted user %s", removed, targetID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan type"})
		return
	}
	u, err := h.users.SetPlan(c.Request.Context(), c.Param("id"), req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidPlan):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan type"})
		case errors.Is(err, users.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user plan"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User plan updated successfully", "user": publicUser(u)})
}
