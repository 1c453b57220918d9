package remote

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// Item is the catalog service's view of a sellable item.
type Item struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price int64     `json:"price"`
}

// ItemClient looks items up in the catalog service.
type ItemClient struct {
	caller *caller
}

func NewItemClient(baseURL string) *ItemClient {
	return &ItemClient{
		caller: newCaller("item-api", baseURL,
			resultcode.ErrorItemConnection, resultcode.ErrorItemResponse),
	}
}

func (c *ItemClient) GetItemByID(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	var item Item
	if err := c.caller.get(ctx, fmt.Sprintf("/v1/items/%s", itemID), &item); err != nil {
		return nil, err
	}
	return &item, nil
}
