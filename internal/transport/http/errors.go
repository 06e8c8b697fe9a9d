package http

import (
	"net/http"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	httpmw "github.com/cwrk-planet/meeting-service/internal/transport/http/middleware"
)

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindUserNotFound, domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindMeetingFull, domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status; internal details are logged, not sent.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		httpmw.L(r.Context()).Error("handler."+op, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: string(kind)})
}
