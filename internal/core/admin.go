package core

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"prison-events/internal/types"
)

// adminAuth guards the queue-admin routes with a bearer token checked
// against the configured bcrypt hash. The plaintext token exists only in
// the operator's hands and in this request.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			Error(w, http.StatusUnauthorized, types.ErrCodeAuthTokenMissing, "missing bearer token")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(s.Config.Admin.TokenHash), []byte(token)); err != nil {
			s.Logger.Warn("rejected queue-admin request", "remote", r.RemoteAddr)
			Error(w, http.StatusForbidden, types.ErrCodeAuthTokenInvalid, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

type retryDLQResponse struct {
	MessagesMoved int `json:"messagesMoved"`
}

// HandleRetryDLQ drains the dead-letter queue back onto the main queue so
// its messages get another delivery round.
func (s *Server) HandleRetryDLQ(w http.ResponseWriter, r *http.Request) {
	moved, err := s.Retrier.RetryAll(r.Context())
	if err != nil {
		s.Logger.Error("DLQ retry failed", "messages_moved", moved, "error", err.Error())
		Error(w, http.StatusInternalServerError, types.ErrCodeQueueTransfer, "failed to transfer dead-letter messages")
		return
	}
	JSON(w, http.StatusOK, retryDLQResponse{MessagesMoved: moved})
}
