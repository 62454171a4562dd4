package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Meta carries pagination info for list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

func RespondSuccess(ctx *gin.Context, status int, data interface{}, message string) {
	ctx.JSON(status, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

func RespondSuccessWithMeta(ctx *gin.Context, status int, data interface{}, meta Meta) {
	ctx.JSON(status, Envelope{
		Success: true,
		Data:    data,
		Meta:    &meta,
	})
}

func RespondError(ctx *gin.Context, status int, message string, details interface{}) {
	ctx.JSON(status, Envelope{
		Success: false,
		Error:   message,
		Details: details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, nil)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message, nil)
}
