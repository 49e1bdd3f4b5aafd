package labels

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, staff gin.HandlerFunc, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/books/labels", staff, h.Batch)
}

// Batch: 複数冊の背ラベルをまとめて CSV で返す
func (h *Handler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	out, err := h.svc.Render(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	ct := "text/csv; charset=Shift_JIS"
	if req.Encoding == EncodingUTF8 {
		ct = "text/csv; charset=utf-8"
	}
	c.Header("Content-Disposition", `attachment; filename="labels.csv"`)
	c.Data(http.StatusOK, ct, out)
}
