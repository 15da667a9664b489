package ticket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/lib/api/response"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Closed(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.ticket")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("ticket notifications not available")
			render.JSON(w, r, response.Error("Ticket notifications not available"))
			return
		}

		var t entity.Ticket
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if t.ID == "" {
			render.JSON(w, r, response.Error("Ticket id is required"))
			return
		}

		handler.TicketClosed(r.Context(), &t)
		logger.Debug("ticket closed notification", slog.String("ticket_id", t.ID))

		render.JSON(w, r, response.Ok("Notification dispatched"))
	}
}
