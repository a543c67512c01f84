package leaderboard

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BoardBestScore = "best_score"
	BoardCoins     = "coins"
)

// Service maintains sorted-set leaderboards in redis. Boards are best-effort:
// the ledger stays the source of truth for balances, boards only rank.
type Service struct {
	rdb *redis.Client
}

func NewService(rdb *redis.Client) *Service {
	return &Service{rdb: rdb}
}

func allTimeKey(board string) string {
	return fmt.Sprintf("lb:%s", board)
}

func dailyKey(board string, now time.Time) string {
	return fmt.Sprintf("lb:%s:%s", board, now.UTC().Format("2006-01-02"))
}

// RecordScore pushes a run's final score onto the all-time and daily boards.
// The all-time board keeps the member's best score (ZADD GT); the daily board
// resets naturally because its key includes the date.
func (s *Service) RecordScore(ctx context.Context, userID int, score int64) {
	if s == nil || s.rdb == nil {
		return
	}
	member := strconv.Itoa(userID)
	z := redis.Z{Score: float64(score), Member: member}

	pipe := s.rdb.Pipeline()
	pipe.ZAddGT(ctx, allTimeKey(BoardBestScore), z)
	daily := dailyKey(BoardBestScore, time.Now())
	pipe.ZAddGT(ctx, daily, z)
	pipe.Expire(ctx, daily, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[LEADERBOARD] Failed to record score for user %d: %v", userID, err)
	}
}

// RecordCoins adds earned coins onto the cumulative coins board.
func (s *Service) RecordCoins(ctx context.Context, userID int, coins int64) {
	if s == nil || s.rdb == nil || coins <= 0 {
		return
	}
	member := strconv.Itoa(userID)

	pipe := s.rdb.Pipeline()
	pipe.ZIncrBy(ctx, allTimeKey(BoardCoins), float64(coins), member)
	daily := dailyKey(BoardCoins, time.Now())
	pipe.ZIncrBy(ctx, daily, float64(coins), member)
	pipe.Expire(ctx, daily, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[LEADERBOARD] Failed to record coins for user %d: %v", userID, err)
	}
}

// Entry is one ranked row.
type Entry struct {
	Rank   int64  `json:"rank"`
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
}

// TopN returns the highest-ranked members of a board, best first.
func (s *Service) TopN(ctx context.Context, board string, daily bool, n int64) ([]Entry, error) {
	key := allTimeKey(board)
	if daily {
		key = dailyKey(board, time.Now())
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		entries = append(entries, Entry{
			Rank:   int64(i + 1),
			UserID: member,
			Score:  int64(z.Score),
		})
	}
	return entries, nil
}

// Rank returns a user's 1-based rank and score on a board. Rank 0 means the
// user has no entry yet.
func (s *Service) Rank(ctx context.Context, board string, daily bool, userID int) (int64, int64, error) {
	key := allTimeKey(board)
	if daily {
		key = dailyKey(board, time.Now())
	}
	member := strconv.Itoa(userID)

	rank, err := s.rdb.ZRevRank(ctx, key, member).Result()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	score, err := s.rdb.ZScore(ctx, key, member).Result()
	if err != nil && err != redis.Nil {
		return 0, 0, err
	}
	return rank + 1, int64(score), nil
}
