package flutterwave

import "encoding/json"

// WebhookEvent is the inbound charge event envelope. Amount is decoded as
// json.Number so integer naira values survive float-encoded payloads.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	ID       int64       `json:"id"`
	TxRef    string      `json:"tx_ref"`
	Status   string      `json:"status"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Successful reports whether the event is a completed charge.
func (e WebhookEvent) Successful() bool {
	return e.Event == "charge.completed" && e.Data.Status == "successful"
}

// AmountValue returns the charge amount truncated to whole currency units.
func (d WebhookData) AmountValue() (int64, error) {
	f, err := d.Amount.Float64()
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
