package members

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

// 会員の貸出一覧 GET /members/:member_id/loans は lending 側で登録する
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/members", h.Create)
	r.GET("/members", h.List)
	r.GET("/members/:member_id", h.Get)
	r.PUT("/members/:member_id", h.Update)
	r.POST("/members/:member_id/deactivate", h.Deactivate)
	r.POST("/members/:member_id/reactivate", h.Reactivate)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/api/members/"+res.MemberID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c *gin.Context) {
	var f Filter
	if v := c.Query("name"); v != "" {
		f.Name = &v
	}
	if v := c.Query("email"); v != "" {
		f.Email = &v
	}
	if v := c.Query("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "active must be true or false"))
			return
		}
		f.Active = &b
	}
	res, err := h.svc.List(c.Request.Context(), f, paging.FromQuery(c))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("member_id"), req)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /members/:member_id/deactivate?force=true
func (h *Handler) Deactivate(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	res, err := h.svc.Deactivate(c.Request.Context(), c.Param("member_id"), force)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Reactivate(c *gin.Context) {
	res, err := h.svc.Reactivate(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
