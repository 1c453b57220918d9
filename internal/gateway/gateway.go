package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Request carries everything an adapter needs for one charge or reversal.
// BundleID is passed through as the merchant order reference; ApproveNo is
// only set on cancellations.
type Request struct {
	BundleID  uuid.UUID
	Amount    int64
	ApproveNo string
}

// Result is the normalized gateway approval.
type Result struct {
	ApproveNo string
	ApproveAt time.Time
	Amount    int64
}

// Adapter executes charges and reversals against one gateway family.
// Codes lists the PGCode codes the adapter owns; the registry routes on
// them.
type Adapter interface {
	Pay(ctx context.Context, req Request) (*Result, error)
	Cancel(ctx context.Context, req Request) (*Result, error)
	Codes() []string
}
