package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tobipay/bundlepay/internal/resultcode"
)

// Registry routes pay/cancel calls to the adapter owning a gateway code.
// It is built once at startup and read-only afterwards.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry collects the adapters into a keyed table. Two adapters
// claiming the same code is a configuration error and fails startup.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	table := make(map[string]Adapter)
	for _, adapter := range adapters {
		for _, code := range adapter.Codes() {
			if _, taken := table[code]; taken {
				return nil, fmt.Errorf("gateway code %q claimed by more than one adapter", code)
			}
			table[code] = adapter
		}
	}
	return &Registry{adapters: table}, nil
}

func (r *Registry) adapter(code string) (Adapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, resultcode.Newf(
			resultcode.ErrorGatewayNotRegistered,
			slog.LevelWarn,
			fmt.Sprintf("no adapter registered for gateway code %q", code),
		)
	}
	return adapter, nil
}

// Pay routes a charge to the adapter for code.
func (r *Registry) Pay(ctx context.Context, code string, req Request) (*Result, error) {
	adapter, err := r.adapter(code)
	if err != nil {
		return nil, err
	}
	return adapter.Pay(ctx, req)
}

// Cancel routes a reversal to the adapter for code.
func (r *Registry) Cancel(ctx context.Context, code string, req Request) (*Result, error) {
	adapter, err := r.adapter(code)
	if err != nil {
		return nil, err
	}
	return adapter.Cancel(ctx, req)
}
