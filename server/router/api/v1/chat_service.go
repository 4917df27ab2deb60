package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/appointment-assistant/internal/errors"
	"github.com/hrygo/appointment-assistant/internal/observability"
	"github.com/hrygo/appointment-assistant/server/service/conversation"
)

// maxMessageLength bounds a single chat message.
const maxMessageLength = 2000

// ChatRequest is one user utterance. An empty session ID starts a new session.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse carries the agent turns for one utterance plus the session ID
// the client must echo back on the next turn.
type ChatResponse struct {
	SessionID string              `json:"session_id"`
	Turns     []conversation.Turn `json:"turns"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// Chat handles one conversation turn.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return badRequest(c, "message must not be empty")
	}
	if len(req.Message) > maxMessageLength {
		return badRequest(c, "message too long")
	}

	sess := s.Sessions.GetOrCreate(req.SessionID)
	reqCtx := observability.NewRequestContext(slog.Default(), sess.ID)
	if !s.limiter.Allow(sess.ID) {
		observability.GlobalMetrics().RecordFailure()
		reqCtx.Warn("chat turn throttled",
			slog.String(observability.LogFieldErrorCode, string(apperrors.ErrCodeInvalidArgument)))
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Code:    apperrors.ErrCodeInvalidArgument,
			Message: "too many requests, slow down",
		})
	}

	ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)

	turns := sess.Handle(ctx, req.Message)

	outcome := ""
	if len(turns) > 0 {
		outcome = string(turns[len(turns)-1].Outcome)
	}
	observability.GlobalMetrics().RecordTurn(outcome, reqCtx.Duration())
	reqCtx.Info("chat turn served",
		slog.String(observability.LogFieldOutcome, outcome),
		slog.Int(observability.LogFieldMessageLen, len(req.Message)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)

	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: sess.ID,
		Turns:     turns,
	})
}

// badRequest rejects a malformed chat request and counts it as a failed turn.
func badRequest(c echo.Context, msg string) error {
	observability.GlobalMetrics().RecordFailure()
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    apperrors.ErrCodeInvalidArgument,
		Message: msg,
	})
}
