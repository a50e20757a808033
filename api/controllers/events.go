package controllers

import (
	"net/http"

	"github.com/aslamtv/storebot-backend/api/responses"
	"github.com/aslamtv/storebot-backend/api/validators"
	"github.com/aslamtv/storebot-backend/internal/dispatch"
	"github.com/aslamtv/storebot-backend/pkg/enums"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/logger"
)

type dispatchEventRequest struct {
	Kind   string            `json:"kind" validate:"required"`
	UserID int64             `json:"user_id" validate:"required,gt=0"`
	Args   map[string]string `json:"args"`
}

// DispatchEvent routes a buyer action from the bot transport to its handler.
func DispatchEvent(d *dispatch.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if d == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatcher unavailable"))
			return
		}

		var req dispatchEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		event := dispatch.Event{
			Kind:   enums.EventKind(req.Kind),
			UserID: req.UserID,
			Args:   req.Args,
		}

		if err := d.Dispatch(ctx, event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "handled"})
	}
}
