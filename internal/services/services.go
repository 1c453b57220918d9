// Package services holds the payment core: proportional allocation,
// compensation of partially completed sequences, and spend-limit
// evaluation. Everything here is wired to interfaces so the flows can be
// exercised without a database or live gateways.
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/gateway"
	"github.com/tobipay/bundlepay/internal/remote"
)

// GatewayRegistry is the dispatch surface of gateway.Registry.
type GatewayRegistry interface {
	Pay(ctx context.Context, code string, req gateway.Request) (*gateway.Result, error)
	Cancel(ctx context.Context, code string, req gateway.Request) (*gateway.Result, error)
}

// UserDirectory resolves users against the identity service.
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*remote.User, error)
}

// ItemCatalog resolves items against the catalog service.
type ItemCatalog interface {
	GetItemByID(ctx context.Context, itemID uuid.UUID) (*remote.Item, error)
}

// PayInstruction is one proposed charge: which gateway, how much.
type PayInstruction struct {
	PGID   uuid.UUID
	Amount int64
}

// ItemInput is one line item of a new bundle.
type ItemInput struct {
	ItemID   uuid.UUID
	Quantity int
}

// CreateBundleInput carries everything needed to open, fill and pay a
// bundle in one call.
type CreateBundleInput struct {
	UserID   uuid.UUID
	Amount   int64
	Items    []ItemInput
	Payments []PayInstruction
}
