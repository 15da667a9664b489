package registration

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Kultup/helpDesk-sub006/internal/lib/api/response"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Rejected(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.registration")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("registration notifications not available")
			render.JSON(w, r, response.Error("Registration notifications not available"))
			return
		}

		var req OutcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.ChatID == "" {
			render.JSON(w, r, response.Error("Chat id is required"))
			return
		}

		handler.RegistrationRejected(r.Context(), req.ChatID, req.Reason)
		logger.Debug("registration rejected notification", slog.String("chat_id", req.ChatID))

		render.JSON(w, r, response.Ok("Notification dispatched"))
	}
}
