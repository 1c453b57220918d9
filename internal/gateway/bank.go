package gateway

import (
	"context"

	"github.com/google/uuid"
)

// BankAdapter charges and reverses bank transfers through the transfer
// gateway's REST API.
type BankAdapter struct {
	client *client
}

func NewBankAdapter(baseURL string) *BankAdapter {
	return &BankAdapter{client: newClient("bank", baseURL)}
}

type bankChargeRequest struct {
	OrderID uuid.UUID `json:"order_id"`
	Amount  int64     `json:"amount"`
}

type bankCancelRequest struct {
	ApproveNo string `json:"approve_no"`
	Amount    int64  `json:"amount"`
}

func (a *BankAdapter) Pay(ctx context.Context, req Request) (*Result, error) {
	return a.client.post(ctx, "/v1/transfers", bankChargeRequest{
		OrderID: req.BundleID,
		Amount:  req.Amount,
	})
}

func (a *BankAdapter) Cancel(ctx context.Context, req Request) (*Result, error) {
	return a.client.post(ctx, "/v1/transfers/cancel", bankCancelRequest{
		ApproveNo: req.ApproveNo,
		Amount:    req.Amount,
	})
}

func (a *BankAdapter) Codes() []string {
	return []string{"BANK"}
}
