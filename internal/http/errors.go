package httpapp

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/alphabot-ai/newsboard/internal/apperr"
	"github.com/alphabot-ai/newsboard/internal/store"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Msg string `json:"msg"`
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Msg: msg})
}

// writeAppError is the only place an error becomes a status code. Database
// codes are checked first, then application errors; anything else is a 500.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch store.CodeOf(err) {
	case store.CodeInvalidTextRepresentation, store.CodeNumericValueOutOfRange, store.CodeForeignKeyViolation:
		writeMsg(w, http.StatusBadRequest, "bad request")
		return
	case store.CodeNotNullViolation:
		writeMsg(w, http.StatusBadRequest, "incomplete entry")
		return
	case store.CodeUniqueViolation:
		writeMsg(w, http.StatusConflict, "already exists")
		return
	}

	if appErr, ok := apperr.As(err); ok {
		writeMsg(w, appErr.Status, appErr.Msg)
		return
	}

	s.log.Error("unhandled error",
		zap.String("request_id", requestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeMsg(w, http.StatusInternalServerError, "internal server error")
}
