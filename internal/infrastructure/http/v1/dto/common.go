// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// IDResponse returns the identifier of a created resource.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps list results.
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// NewListResponse builds a list envelope from a slice.
func NewListResponse[T any](items []T) ListResponse {
	return ListResponse{Items: items, Count: len(items)}
}
