package httpapi

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
)

// Pagination describes one page of a paginated collection.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Envelope wraps a page of items with its pagination metadata.
type Envelope struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// paginationParams reads ?page= and ?page_size= from the request. page is
// clamped to >= 1; page_size is clamped to [1, 100].
func paginationParams(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// paginate slices items into the requested page and builds the envelope.
// totalItems is len(items) before slicing so callers can paginate any
// ordered slice without reflection on the element type.
func paginate[T any](items []T, page, pageSize int) Envelope {
	total := len(items)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	if start < 0 {
		start = 0
	}

	pageItems := items[start:end]
	if pageItems == nil {
		pageItems = []T{}
	}

	return Envelope{
		Items: pageItems,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
			HasNext:    page*pageSize < total,
			HasPrev:    page > 1,
		},
	}
}

// ErrorCode is one of the fixed codes used in the JSON error envelope.
type ErrorCode string

const (
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrBadRequest   ErrorCode = "BAD_REQUEST"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

var statusForCode = map[ErrorCode]int{
	ErrNotFound:   http.StatusNotFound,
	ErrBadRequest: http.StatusBadRequest,
	ErrForbidden:  http.StatusForbidden,
	ErrConflict:   http.StatusConflict,
	ErrInternal:   http.StatusInternalServerError,
}

type errorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code ErrorCode, message string) {
	status, ok := statusForCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeOK(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, v)
}
