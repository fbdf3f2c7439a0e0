package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	balancesKey    = "blackjack:balances"
	leaderboardKey = "blackjack:leaderboard"
)

// Redis stores balances in a hash and the leaderboard in a sorted set so
// Top is a single ZREVRANGE.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given address and verifies the connection.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Balance(ctx context.Context, username string) (int, bool, error) {
	val, err := r.client.HGet(ctx, balancesKey, username).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading balance for %s: %w", username, err)
	}
	balance, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("parsing balance for %s: %w", username, err)
	}
	return balance, true, nil
}

func (r *Redis) SetBalance(ctx context.Context, username string, balance int) error {
	if err := r.client.HSet(ctx, balancesKey, username, balance).Err(); err != nil {
		return fmt.Errorf("writing balance for %s: %w", username, err)
	}
	return nil
}

func (r *Redis) UpsertHighScore(ctx context.Context, username string, balance int) error {
	// ZADD GT only moves the score upward, matching the high-water
	// semantics of the leaderboard.
	err := r.client.ZAddGT(ctx, leaderboardKey, redis.Z{
		Score:  float64(balance),
		Member: username,
	}).Err()
	if err != nil {
		return fmt.Errorf("updating leaderboard for %s: %w", username, err)
	}
	return nil
}

func (r *Redis) Top(ctx context.Context, n int) ([]Entry, error) {
	results, err := r.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}
	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		username, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Username: username, Score: int(z.Score)})
	}
	return entries, nil
}
