package utils

import (
	"strconv"
)

func ParseBoolQuery(value string) (*bool, error) {
	if value == "" {
		return nil, nil // not provided
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

type QueryLimits struct {
	Default int
	Max     int
}

var DefaultQueryLimits = QueryLimits{Default: 20, Max: 100}

// MaxPage bounds the page number so the skip offset stays small and positive.
const MaxPage = 10000

type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// ParsePagination clamps page to [1, MaxPage] and falls back to the default limit when the
// requested one is out of range.
func ParsePagination(pageStr, limitStr string, limits QueryLimits) Pagination {
	page := ParseIntDefault(pageStr, 1)
	limit := ParseIntDefault(limitStr, limits.Default)
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 || limit > limits.Max {
		limit = limits.Default
	}
	return Pagination{Page: page, Limit: limit}
}
