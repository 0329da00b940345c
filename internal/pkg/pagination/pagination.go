package pagination

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ErrInvalidParams is returned when page or limit is not a number
var ErrInvalidParams = errors.New("page and limit must be integers")

const (
	// DefaultLimit is the default number of items per page
	DefaultLimit = 20
	// MaxLimit is the maximum number of items per page
	MaxLimit = 100
)

// Params represents pagination parameters
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Meta represents pagination metadata
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Response represents paginated response
type Response struct {
	Items interface{} `json:"items"`
	Meta  *Meta       `json:"meta"`
}

// FromQuery reads ?page= and ?limit=. Out of range values are clamped.
func FromQuery(c *fiber.Ctx) (Params, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return Params{}, err
	}
	limit, err := queryInt(c, "limit", DefaultLimit)
	if err != nil {
		return Params{}, err
	}
	return New(page, limit), nil
}

// New clamps page and limit and computes the offset
func New(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidParams
	}
	return n, nil
}

// NewMeta calculates pagination metadata
func NewMeta(p Params, total int64) *Meta {
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return &Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

// NewResponse creates a new paginated response
func NewResponse(items interface{}, p Params, total int64) *Response {
	return &Response{Items: items, Meta: NewMeta(p, total)}
}
