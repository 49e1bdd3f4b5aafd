package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/paging"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// authors
	r.POST("/authors", h.CreateAuthor)
	r.GET("/authors", h.ListAuthors)
	r.GET("/authors/:author_id", h.GetAuthor)
	r.PUT("/authors/:author_id", h.UpdateAuthor)
	r.DELETE("/authors/:author_id", h.DeleteAuthor)

	// books（冊数の変更は lending 側の PUT /books/:book_id/copies）
	r.POST("/books", h.CreateBook)
	r.GET("/books", h.ListBooks)
	r.GET("/books/:book_id", h.GetBook)
	r.PUT("/books/:book_id", h.UpdateBook)
	r.DELETE("/books/:book_id", h.DeleteBook)
}

// ===== authors =====

func (h *Handler) CreateAuthor(c *gin.Context) {
	var req CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.CreateAuthor(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/api/authors/"+res.AuthorID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListAuthors(c *gin.Context) {
	var f AuthorFilter
	if v := c.Query("name"); v != "" {
		f.Name = &v
	}
	res, err := h.svc.ListAuthors(c.Request.Context(), f, paging.FromQuery(c))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetAuthor(c *gin.Context) {
	res, err := h.svc.GetAuthor(c.Request.Context(), c.Param("author_id"))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateAuthor(c *gin.Context) {
	var req UpdateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.UpdateAuthor(c.Request.Context(), c.Param("author_id"), req)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteAuthor(c *gin.Context) {
	if err := h.svc.DeleteAuthor(c.Request.Context(), c.Param("author_id")); err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== books =====

func (h *Handler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.CreateBook(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Header("Location", "/api/books/"+res.BookID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListBooks(c *gin.Context) {
	var f BookFilter
	if v := c.Query("title"); v != "" {
		f.Title = &v
	}
	if v := c.Query("author_id"); v != "" {
		f.AuthorID = &v
	}
	if v := c.Query("isbn"); v != "" {
		f.ISBN = &v
	}
	if v := c.Query("genre"); v != "" {
		f.Genre = &v
	}
	res, err := h.svc.ListBooks(c.Request.Context(), f, paging.FromQuery(c))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetBook(c *gin.Context) {
	res, err := h.svc.GetBook(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.UpdateBook(c.Request.Context(), c.Param("book_id"), req)
	if err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteBook(c *gin.Context) {
	if err := h.svc.DeleteBook(c.Request.Context(), c.Param("book_id")); err != nil {
		c.JSON(apierr.HTTPStatus(err), apierr.BodyFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}
