package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/hftsim/internal/domain"
)

// BookCache implements domain.BookCache using Redis sorted sets and hashes
// for each symbol's book, so dashboards can read levels and BBO without
// touching the engine.
//
// Key schema:
//
//	book:{symbol}:bids     - sorted set of bid prices (score = price)
//	book:{symbol}:asks     - sorted set of ask prices (score = price)
//	book:{symbol}:bid:size - hash mapping price -> size for bids
//	book:{symbol}:ask:size - hash mapping price -> size for asks
//	book:{symbol}:bbo      - hash with fields "bid" and "ask" (best prices)
//	book:{symbol}:features - latest BookFeatures as JSON
//	book:{symbol}:meta     - hash with "ts" field (snapshot timestamp)
type BookCache struct {
	rdb *redis.Client
}

// NewBookCache creates a BookCache backed by the given Client.
func NewBookCache(c *Client) *BookCache {
	return &BookCache{rdb: c.Underlying()}
}

func bookBidsKey(symbol string) string     { return "book:" + symbol + ":bids" }
func bookAsksKey(symbol string) string     { return "book:" + symbol + ":asks" }
func bookBidSizeKey(symbol string) string  { return "book:" + symbol + ":bid:size" }
func bookAskSizeKey(symbol string) string  { return "book:" + symbol + ":ask:size" }
func bookBBOKey(symbol string) string      { return "book:" + symbol + ":bbo" }
func bookFeaturesKey(symbol string) string { return "book:" + symbol + ":features" }
func bookMetaKey(symbol string) string     { return "book:" + symbol + ":meta" }

// SetSnapshot atomically replaces the cached book for a symbol. It clears
// existing data and repopulates the sorted sets, size hashes, BBO hash, and
// metadata in one transaction.
func (bc *BookCache) SetSnapshot(ctx context.Context, symbol string, snap domain.BookSnapshot) error {
	bidsKey := bookBidsKey(symbol)
	asksKey := bookAsksKey(symbol)
	bidSizeKey := bookBidSizeKey(symbol)
	askSizeKey := bookAskSizeKey(symbol)
	bboKey := bookBBOKey(symbol)
	metaKey := bookMetaKey(symbol)

	pipe := bc.rdb.TxPipeline()

	pipe.Del(ctx, bidsKey, asksKey, bidSizeKey, askSizeKey, bboKey, metaKey)

	for _, lvl := range snap.Bids {
		priceStr := formatFloat(lvl.Price)
		pipe.ZAdd(ctx, bidsKey, redis.Z{Score: lvl.Price, Member: priceStr})
		pipe.HSet(ctx, bidSizeKey, priceStr, formatFloat(lvl.Size))
	}
	for _, lvl := range snap.Asks {
		priceStr := formatFloat(lvl.Price)
		pipe.ZAdd(ctx, asksKey, redis.Z{Score: lvl.Price, Member: priceStr})
		pipe.HSet(ctx, askSizeKey, priceStr, formatFloat(lvl.Size))
	}

	if len(snap.Bids) > 0 {
		pipe.HSet(ctx, bboKey, "bid", formatFloat(snap.Bids[0].Price))
	}
	if len(snap.Asks) > 0 {
		pipe.HSet(ctx, bboKey, "ask", formatFloat(snap.Asks[0].Price))
	}

	pipe.HSet(ctx, metaKey, "ts", strconv.FormatInt(snap.Timestamp.UnixNano(), 10))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set book snapshot %s: %w", symbol, err)
	}
	return nil
}

// GetSnapshot reconstructs a BookSnapshot from Redis. It returns
// domain.ErrNotFound if no snapshot data exists for the symbol.
func (bc *BookCache) GetSnapshot(ctx context.Context, symbol string) (domain.BookSnapshot, error) {
	pipe := bc.rdb.Pipeline()

	bidsCmd := pipe.ZRevRangeWithScores(ctx, bookBidsKey(symbol), 0, -1)
	asksCmd := pipe.ZRangeWithScores(ctx, bookAsksKey(symbol), 0, -1)
	bidSizeCmd := pipe.HGetAll(ctx, bookBidSizeKey(symbol))
	askSizeCmd := pipe.HGetAll(ctx, bookAskSizeKey(symbol))
	metaCmd := pipe.HGetAll(ctx, bookMetaKey(symbol))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.BookSnapshot{}, fmt.Errorf("redis: get book snapshot %s: %w", symbol, err)
	}

	metaVals, _ := metaCmd.Result()
	if len(metaVals) == 0 {
		return domain.BookSnapshot{}, domain.ErrNotFound
	}

	snap := domain.BookSnapshot{Symbol: symbol}

	if tsStr, ok := metaVals["ts"]; ok {
		if tsNano, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			snap.Timestamp = time.Unix(0, tsNano)
		}
	}

	bidSizes, _ := bidSizeCmd.Result()
	snap.Bids = buildLevels(bidsCmd, bidSizes)
	askSizes, _ := askSizeCmd.Result()
	snap.Asks = buildLevels(asksCmd, askSizes)

	if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
		spread := snap.Asks[0].Price - snap.Bids[0].Price
		mid := (snap.Asks[0].Price + snap.Bids[0].Price) / 2
		snap.Spread = &spread
		snap.MidPrice = &mid
	}

	return snap, nil
}

// SetFeatures stores the latest microstructure features for a symbol as
// JSON.
func (bc *BookCache) SetFeatures(ctx context.Context, symbol string, f domain.BookFeatures) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("redis: marshal features %s: %w", symbol, err)
	}
	if err := bc.rdb.Set(ctx, bookFeaturesKey(symbol), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set features %s: %w", symbol, err)
	}
	return nil
}

// GetBBO retrieves the current best bid and best ask from the BBO hash. It
// returns domain.ErrNotFound if no BBO data exists.
func (bc *BookCache) GetBBO(ctx context.Context, symbol string) (bestBid, bestAsk float64, err error) {
	vals, err := bc.rdb.HGetAll(ctx, bookBBOKey(symbol)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis: get bbo %s: %w", symbol, err)
	}
	if len(vals) == 0 {
		return 0, 0, domain.ErrNotFound
	}

	if bidStr, ok := vals["bid"]; ok {
		bestBid, _ = strconv.ParseFloat(bidStr, 64)
	}
	if askStr, ok := vals["ask"]; ok {
		bestAsk, _ = strconv.ParseFloat(askStr, 64)
	}
	return bestBid, bestAsk, nil
}

// Delete removes all cached keys for a symbol, used when its book is
// removed from the session.
func (bc *BookCache) Delete(ctx context.Context, symbol string) error {
	keys := []string{
		bookBidsKey(symbol), bookAsksKey(symbol),
		bookBidSizeKey(symbol), bookAskSizeKey(symbol),
		bookBBOKey(symbol), bookFeaturesKey(symbol), bookMetaKey(symbol),
	}
	if err := bc.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: delete book %s: %w", symbol, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func buildLevels(cmd *redis.ZSliceCmd, sizes map[string]string) []domain.PriceLevel {
	zs, _ := cmd.Result()
	levels := make([]domain.PriceLevel, 0, len(zs))
	for _, z := range zs {
		priceStr, ok := z.Member.(string)
		if !ok {
			continue
		}
		size := 0.0
		if sizeStr, exists := sizes[priceStr]; exists {
			size, _ = strconv.ParseFloat(sizeStr, 64)
		}
		levels = append(levels, domain.PriceLevel{Price: z.Score, Size: size})
	}
	return levels
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
