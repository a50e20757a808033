package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aslamtv/storebot-backend/api/responses"
	"github.com/aslamtv/storebot-backend/api/validators"
	"github.com/aslamtv/storebot-backend/internal/sessions"
	"github.com/aslamtv/storebot-backend/pkg/enums"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/logger"
)

type setSessionRequest struct {
	State   string            `json:"state" validate:"required"`
	Payload map[string]string `json:"payload"`
}

func SessionFetch(store *sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, err := store.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func SessionSet(store *sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req setSessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session := &sessions.Session{
			UserID:  userID,
			State:   enums.SessionState(req.State),
			Payload: req.Payload,
		}
		if err := store.Set(ctx, session); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func SessionClear(store *sessions.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := store.Clear(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func sessionUserID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "userId")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id")
	}
	return userID, nil
}
