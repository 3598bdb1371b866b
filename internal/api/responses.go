// Package api holds the response envelopes shared by the HTTP handlers
// and referenced from the swagger annotations.
package api

type ErrorResponse struct {
	Error string `json:"error" example:"insufficient token balance"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Service string `json:"service" example:"tutorhub"`
}
