package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
)

var statusDefaults = map[int]*appErrors.Error{
	http.StatusBadRequest:          appErrors.Clone(appErrors.ErrBadRequest, "bad request, please check the submitted data"),
	http.StatusUnauthorized:        appErrors.ErrSessionExpired,
	http.StatusForbidden:           appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to perform this action"),
	http.StatusNotFound:            appErrors.Clone(appErrors.ErrNotFound, "the requested resource was not found"),
	http.StatusConflict:            appErrors.Clone(appErrors.ErrConflict, "the request conflicts with the current state of the resource"),
	http.StatusUnprocessableEntity: appErrors.Clone(appErrors.ErrUnprocessable, "the submitted data could not be processed"),
	http.StatusInternalServerError: appErrors.New("UPSTREAM_ERROR", http.StatusInternalServerError, "server error, please try again later"),
}

// classifyStatus turns a non-2xx upstream answer into a single operator-facing error.
// The body's "error" or "message" field wins over the status default.
func classifyStatus(status int, body []byte) *appErrors.Error {
	base, ok := statusDefaults[status]
	if !ok {
		base = appErrors.New("UPSTREAM_ERROR", status, fmt.Sprintf("request failed with status %d", status))
		if status < 400 || status > 599 {
			base.Status = http.StatusBadGateway
		}
	}
	msg := extractMessage(body)
	out := appErrors.Clone(base, msg)
	out.Err = fmt.Errorf("upstream status %d", status)
	return out
}

// classifyTransport maps a failed round trip to cancelled, timeout or network error.
func classifyTransport(reqCtx, parent context.Context, err error) *appErrors.Error {
	switch {
	case cancelledByManager(reqCtx):
		return appErrors.Wrap(context.Cause(reqCtx), appErrors.ErrRequestCancelled.Code, appErrors.ErrRequestCancelled.Status, appErrors.ErrRequestCancelled.Message)
	case errors.Is(parent.Err(), context.Canceled):
		return appErrors.Wrap(err, appErrors.ErrRequestCancelled.Code, appErrors.ErrRequestCancelled.Status, appErrors.ErrRequestCancelled.Message)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Status, appErrors.ErrUpstreamTimeout.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
	}
}

func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, field := range []string{"error", "message"} {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		if msg := messageFrom(raw); msg != "" {
			return msg
		}
	}
	return ""
}

// messageFrom reads either a plain string or an object carrying "message".
func messageFrom(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
