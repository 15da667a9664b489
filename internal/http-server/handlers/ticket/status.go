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

type StatusRequest struct {
	Ticket    entity.Ticket `json:"ticket"`
	OldStatus string        `json:"old_status"`
}

func StatusChanged(log *slog.Logger, handler Core) http.HandlerFunc {
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

		var req StatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		if req.Ticket.ID == "" {
			render.JSON(w, r, response.Error("Ticket id is required"))
			return
		}

		handler.TicketStatusChanged(r.Context(), &req.Ticket, req.OldStatus)
		logger.Debug("ticket status notification",
			slog.String("ticket_id", req.Ticket.ID),
			slog.String("old_status", req.OldStatus),
			slog.String("status", req.Ticket.Status),
		)

		render.JSON(w, r, response.Ok("Notification dispatched"))
	}
}
