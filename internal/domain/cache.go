package domain

import "context"

// BookCache mirrors live book state into an external cache so that
// dashboards and sibling processes can read levels and BBO without touching
// the engine. Implemented by the Redis cache.
type BookCache interface {
	SetSnapshot(ctx context.Context, symbol string, snap BookSnapshot) error
	GetSnapshot(ctx context.Context, symbol string) (BookSnapshot, error)
	SetFeatures(ctx context.Context, symbol string, f BookFeatures) error
	GetBBO(ctx context.Context, symbol string) (bestBid, bestAsk float64, err error)
	Delete(ctx context.Context, symbol string) error
}

// SignalBus provides pub/sub fan-out of engine events (book features, fills,
// toxicity alerts) to external consumers such as the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
