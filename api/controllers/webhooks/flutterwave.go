package webhooks

import (
	"fmt"
	"io"
	"net/http"

	"github.com/aslamtv/storebot-backend/api/responses"
	"github.com/aslamtv/storebot-backend/internal/payments"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/flutterwave"
	"github.com/aslamtv/storebot-backend/pkg/logger"
)

// FlutterwaveWebhook receives payment gateway callbacks. Every event that is
// not a signature failure or an infrastructure error is answered with a 200,
// whatever the reconciliation outcome, so the gateway stops retrying.
func FlutterwaveWebhook(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(flutterwave.SignatureHeader)
		result, err := svc.HandleWebhook(ctx, signature, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := map[string]string{"outcome": string(result.Outcome)}
		if result.Order != nil {
			payload["order_id"] = result.Order.ID
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("flutterwave event handled: %s", result.Outcome))
		}
		responses.WriteSuccess(w, payload)
	}
}
