package api

import "github.com/samcharles93/tilesave/internal/savestore"

// ListResponse is the body of GET /v1/saves.
type ListResponse struct {
	Object string           `json:"object"`
	Data   []savestore.Info `json:"data"`
}

// ErrorBody is the error payload of every failed request.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse wraps ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
