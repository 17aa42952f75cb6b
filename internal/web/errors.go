package web

// errors.go provides unified error responses for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get the operator message and code
//  4. Technical error is logged with the request ID for correlation
//  5. The message is rendered as JSON for API routes, HTML otherwise

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/warehouse/internal/core"
	"github.com/JonMunkholm/warehouse/internal/logging"
	"github.com/JonMunkholm/warehouse/internal/web/templates"
)

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(err error) ErrorResponse {
	msg := core.MapError(err)
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// respondError logs the technical error and returns the mapped message.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userErr := core.NewUserError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", userErr.Technical.Error(),
		"code", userErr.User.Code,
	)

	if wantsJSON(r) {
		writeJSON(w, statusCode, newErrorResponse(err))
		return
	}
	msg := userErr.User
	page := templates.Page("Error", templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
	templ.Handler(page, templ.WithStatus(statusCode)).ServeHTTP(w, r)
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
