package handler

import (
	"errors"
	"net/http"

	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/middleware"
	"github.com/dukerupert/epharmacy/internal/telemetry"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Reason  string            `json:"reason,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EPAYMENT:
		return http.StatusPaymentRequired // 402
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorResponse writes err as a JSON error body. Validation errors carry
// their per-field messages. 5xx responses get a generic message, are
// logged at error level and are reported to Sentry.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	detail := errorDetail{
		Code:    domain.ErrorCode(err),
		Reason:  domain.ErrorReason(err),
		Message: domain.ErrorMessage(err),
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		detail = errorDetail{
			Code:    domain.EINVALID,
			Reason:  domain.ReasonInvalidInput,
			Message: "Validation failed",
			Fields:  ve.Fields,
		}
	}

	status := ErrorCodeToHTTPStatus(detail.Code)
	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		"error", err.Error(),
		"code", detail.Code,
		"reason", detail.Reason,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}

	if status >= 500 {
		logger.Error("request failed", attrs...)
		telemetry.CaptureError(r.Context(), err, map[string]interface{}{
			"request_id": middleware.GetRequestID(r.Context()),
			"path":       r.URL.Path,
		})
	} else {
		logger.Info("request rejected", attrs...)
	}

	WriteJSON(w, status, errorBody{Error: detail})
}

// NotFoundResponse writes a 404 for unmatched routes.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}
