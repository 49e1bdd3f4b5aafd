package paging

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Page struct {
	Limit  int
	Offset int
	Order  string // "asc" or "desc"
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if strings.ToLower(p.Order) == "asc" {
		p.Order = "ASC"
	} else {
		p.Order = "DESC"
	}
	return p
}

// NextOffset は終端なら 0 を返す。
func (p Page) NextOffset(total int64) int {
	n := p.Offset + p.Limit
	if n >= int(total) {
		return 0
	}
	return n
}

func FromQuery(c *gin.Context) Page {
	return Page{
		Limit:  atoiDef(c.Query("limit"), DefaultLimit),
		Offset: atoiDef(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}.Normalize()
}

type Result[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	NextOffset int   `json:"next_offset"`
}

func NewResult[T any](items []T, total int64, p Page) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items, Total: total, NextOffset: p.NextOffset(total)}
}

func atoiDef(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
