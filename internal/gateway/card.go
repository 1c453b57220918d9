package gateway

import (
	"context"

	"github.com/google/uuid"
)

// CardAdapter talks to the card acquirer.
type CardAdapter struct {
	client *client
}

func NewCardAdapter(baseURL string) *CardAdapter {
	return &CardAdapter{client: newClient("card", baseURL)}
}

type cardChargeRequest struct {
	MerchantOrderID uuid.UUID `json:"merchant_order_id"`
	Amount          int64     `json:"amount"`
}

type cardCancelRequest struct {
	ApproveNo string `json:"approve_no"`
	Amount    int64  `json:"amount"`
}

func (a *CardAdapter) Pay(ctx context.Context, req Request) (*Result, error) {
	return a.client.post(ctx, "/v1/charges", cardChargeRequest{
		MerchantOrderID: req.BundleID,
		Amount:          req.Amount,
	})
}

func (a *CardAdapter) Cancel(ctx context.Context, req Request) (*Result, error) {
	return a.client.post(ctx, "/v1/charges/cancel", cardCancelRequest{
		ApproveNo: req.ApproveNo,
		Amount:    req.Amount,
	})
}

func (a *CardAdapter) Codes() []string {
	return []string{"CARD"}
}
