package gateway

import (
	"context"

	"github.com/google/uuid"
)

// WalletAdapter covers the e-wallet providers sharing the aggregator API.
type WalletAdapter struct {
	client *client
}

func NewWalletAdapter(baseURL string) *WalletAdapter {
	return &WalletAdapter{client: newClient("wallet", baseURL)}
}

type walletRequest struct {
	OrderRef  uuid.UUID `json:"order_ref"`
	Amount    int64     `json:"amount"`
	ApproveNo string    `json:"approve_no,omitempty"`
}

func (a *WalletAdapter) Pay(ctx context.Context, req Request) (*Result, error) {
	return a.client.post(ctx, "/v1/wallet/pay", walletRequest{
		OrderRef: req.BundleID,
		Amount:   req.Amount,
	})
}

func (a *WalletAdapter) Cancel(ctx context.Context, req Request) (*Result, error) {
	return a.client.post(ctx, "/v1/wallet/refund", walletRequest{
		OrderRef:  req.BundleID,
		Amount:    req.Amount,
		ApproveNo: req.ApproveNo,
	})
}

func (a *WalletAdapter) Codes() []string {
	return []string{"WALLET", "POINT"}
}
