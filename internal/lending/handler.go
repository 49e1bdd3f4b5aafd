package lending

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

// RegisterRoutes は貸出系のルート。copies の変更は staff（librarian/admin）だけに絞る。
func RegisterRoutes(r gin.IRoutes, staff gin.HandlerFunc, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/loans", h.Issue)
	r.GET("/loans", h.List)
	r.GET("/loans/overdue", h.ListOverdue)
	r.GET("/loans/export", h.Export)
	r.GET("/loans/stats", h.Stats)
	r.GET("/loans/:loan_id", h.Get)
	r.POST("/loans/:loan_id/return", h.Return)
	r.POST("/loans/:loan_id/renew", h.Renew)

	r.PUT("/books/:book_id/copies", staff, h.AdjustCopies)
	r.GET("/books/:book_id/availability", h.Availability)
	r.GET("/books/:book_id/loans", h.ListByBook)
	r.GET("/members/:member_id/loans", h.ListByMember)
}

func (h *Handler) Issue(c *gin.Context) {
	var req IssueLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	var due *time.Time
	if req.DueAt != "" {
		t, err := parseTime("due_at", req.DueAt)
		if err != nil {
			c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
			return
		}
		due = &t
	}
	loan, err := h.svc.IssueLoan(c.Request.Context(), req.BookID, req.MemberID, due)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/api/loans/"+loan.LoanID)
	c.JSON(http.StatusCreated, loan.ToDTO(h.svc.Now()))
}

func (h *Handler) Return(c *gin.Context) {
	var req ReturnLoanRequest
	// ボディ無しも許可（返却日時 = 現在）。chunked だと ContentLength は -1 になるので見ない
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
			return
		}
	}
	var at *time.Time
	if req.ReturnedAt != "" {
		t, err := parseReturnedAt(req.ReturnedAt, h.svc.Now())
		if err != nil {
			c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
			return
		}
		at = &t
	}
	loan, err := h.svc.ReturnLoan(c.Request.Context(), c.Param("loan_id"), at)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, loan.ToDTO(h.svc.Now()))
}

func (h *Handler) Renew(c *gin.Context) {
	var req RenewLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	due, err := parseTime("due_at", req.DueAt)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	loan, err := h.svc.RenewLoan(c.Request.Context(), c.Param("loan_id"), due)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, loan.ToDTO(h.svc.Now()))
}

func (h *Handler) Get(c *gin.Context) {
	loan, err := h.svc.GetLoan(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, loan.ToDTO(h.svc.Now()))
}

func (h *Handler) List(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	h.list(c, f)
}

func (h *Handler) ListByBook(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	id := c.Param("book_id")
	f.BookID = &id
	h.list(c, f)
}

func (h *Handler) ListByMember(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	id := c.Param("member_id")
	f.MemberID = &id
	h.list(c, f)
}

func (h *Handler) list(c *gin.Context, f Filter) {
	res, err := h.svc.ListLoans(c.Request.Context(), f, paging.FromQuery(c))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListOverdue(c *gin.Context) {
	loans, err := h.svc.ListOverdue(c.Request.Context())
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	now := h.svc.Now()
	items := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		items = append(items, l.ToDTO(now))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// GET /loans/export?encoding=sjis
func (h *Handler) Export(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	enc := c.DefaultQuery("encoding", EncodingUTF8)
	if enc != EncodingUTF8 && enc != EncodingSJIS {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "encoding must be utf8 or sjis"))
		return
	}
	charset := "utf-8"
	if enc == EncodingSJIS {
		charset = "Shift_JIS"
	}
	filename := "loans_" + h.svc.Now().Format("20060102") + ".csv"
	c.Header("Content-Type", "text/csv; charset="+charset)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := h.svc.ExportCSV(c.Request.Context(), c.Writer, f, enc); err != nil {
		// ヘッダ送信後なのでログだけ
		log.Printf("[ERROR] loan export failed: %v", err)
	}
}

func (h *Handler) AdjustCopies(c *gin.Context) {
	var req AdjustCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "total_copies is required"))
		return
	}
	res, err := h.svc.AdjustTotalCopies(c.Request.Context(), c.Param("book_id"), *req.TotalCopies)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Availability(c *gin.Context) {
	res, err := h.svc.CheckBook(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func filterFromQuery(c *gin.Context) (Filter, bool) {
	var f Filter
	if v := c.Query("book_id"); v != "" {
		f.BookID = &v
	}
	if v := c.Query("member_id"); v != "" {
		f.MemberID = &v
	}
	if v := c.Query("open"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "open must be true or false"))
			return f, false
		}
		f.Open = &b
	}
	if v := c.Query("overdue"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "overdue must be true or false"))
			return f, false
		}
		f.Overdue = b
	}
	return f, true
}

// Stats: GET /loans/stats?by=book&from=2024-04-01&to=2024-04-30&limit=10
func (h *Handler) Stats(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "limit must be an integer"))
		return
	}
	res, err := h.svc.Stats(c.Request.Context(), StatsRequest{
		By:    c.Query("by"),
		From:  c.Query("from"),
		To:    c.Query("to"),
		Limit: limit,
	})
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
