package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apierr"
)

type AuthHandler struct{ svc *Service }

// public: /auth/register, /auth/login
// admin: /auth/accounts/...（RequireAuth + RequireRole(admin) を掛けたグループを渡す）
func RegisterRoutes(public, admin gin.IRoutes, svc *Service) {
	h := &AuthHandler{svc: svc}
	public.POST("/auth/login", h.Login)
	public.POST("/auth/register", h.Register)

	admin.POST("/auth/accounts", h.CreateAccount)
	admin.DELETE("/auth/accounts/:id", h.DeleteAccount)
	admin.PATCH("/auth/accounts/:id", h.ChangeUsername) // “ユーザー名変更” = id変更
	admin.POST("/auth/accounts/:id/disable", h.Disable)
	admin.POST("/auth/accounts/:id/enable", h.Enable)
}

type LoginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid request"))
		return
	}
	token, err := h.svc.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

type RegisterRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register は誰でも呼べるので role は常に user。
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid request"))
		return
	}
	if err := h.svc.Register(c.Request.Context(), req.ID, req.Password, RoleUser); err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID, "role": RoleUser})
}

type CreateAccountRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid request"))
		return
	}
	if err := h.svc.Register(c.Request.Context(), req.ID, req.Password, req.Role); err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": req.ID, "role": req.Role})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

type ChangeUsernameRequest struct {
	NewID string `json:"new_id" binding:"required"`
}

func (h *AuthHandler) ChangeUsername(c *gin.Context) {
	var req ChangeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid request"))
		return
	}
	if err := h.svc.ChangeID(c.Request.Context(), c.Param("id"), req.NewID); err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.NewID})
}

func (h *AuthHandler) Disable(c *gin.Context) { h.setDisabled(c, true) }

func (h *AuthHandler) Enable(c *gin.Context) { h.setDisabled(c, false) }

func (h *AuthHandler) setDisabled(c *gin.Context, disabled bool) {
	if err := h.svc.SetDisabled(c.Request.Context(), c.Param("id"), disabled); err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}
