package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/economy"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var (
	ErrStakeTooSmall   = errors.New("stake below minimum")
	ErrAlreadyQueued   = errors.New("already in the matchmaking queue")
	ErrQueueRateLimit  = errors.New("queue join rate limit hit")
	ErrQueueEntryGone  = errors.New("queue entry not found")
	ErrCannotAffordBet = errors.New("insufficient coins for stake")
)

// Notifier pushes match-found events to waiting players. The ws hub implements
// it; a nil-safe no-op is used in tests.
type Notifier interface {
	MatchFound(queueToken string, match *models.Match)
}

// Matchmaker pairs queued players with equal stakes and comparable power
// ratings. Pairing runs on a background ticker; each tick claims waiting
// entries with SKIP LOCKED so multiple server instances can run the worker
// concurrently without double-matching anyone.
type Matchmaker struct {
	db       *sqlx.DB
	rdb      *redis.Client
	cfg      *config.Config
	notifier Notifier
}

func NewMatchmaker(db *sqlx.DB, rdb *redis.Client, cfg *config.Config, notifier Notifier) *Matchmaker {
	return &Matchmaker{db: db, rdb: rdb, cfg: cfg, notifier: notifier}
}

// Enqueue puts a player into the wager queue. The stake is not escrowed yet:
// balances are only checked here, and debited atomically when a pairing is
// made, so an expired queue entry never holds funds.
func (mm *Matchmaker) Enqueue(ctx context.Context, userID int, stake int64) (*models.QueueEntry, error) {
	if stake < mm.cfg.MinStakeAmount {
		return nil, ErrStakeTooSmall
	}

	if mm.rdb != nil {
		key := fmt.Sprintf("mm:join:%d", userID)
		set, err := mm.rdb.SetNX(ctx, key, 1, time.Duration(mm.cfg.QueueJoinRateLimitSeconds)*time.Second).Result()
		if err == nil && !set {
			return nil, ErrQueueRateLimit
		}
	}

	var user models.User
	if err := mm.db.Get(&user, `SELECT id, coins, upgrades FROM users WHERE id=$1`, userID); err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user.Coins < stake {
		return nil, ErrCannotAffordBet
	}

	var waiting int
	if err := mm.db.Get(&waiting, `
		SELECT COUNT(*) FROM match_queue WHERE user_id=$1 AND status=$2
	`, userID, models.QueueWaiting); err != nil {
		return nil, err
	}
	if waiting > 0 {
		return nil, ErrAlreadyQueued
	}

	entry := &models.QueueEntry{
		QueueToken: uuid.NewString(),
		UserID:     userID,
		Stake:      stake,
		Power:      economy.PowerLevel(user.Upgrades),
		Status:     models.QueueWaiting,
	}
	err := mm.db.QueryRowx(`
		INSERT INTO match_queue (queue_token, user_id, stake, power, status, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW() + make_interval(mins => $6))
		RETURNING id, created_at, expires_at
	`, entry.QueueToken, entry.UserID, entry.Stake, entry.Power, entry.Status,
		mm.cfg.QueueExpiryMinutes).Scan(&entry.ID, &entry.CreatedAt, &entry.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert queue entry: %w", err)
	}

	log.Printf("[MATCHMAKER] User %d queued (stake=%d power=%.2f token=%s)",
		userID, stake, entry.Power, entry.QueueToken)
	return entry, nil
}

// Status returns the caller's queue entry by token.
func (mm *Matchmaker) Status(queueToken string, userID int) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := mm.db.Get(&entry, `
		SELECT id, queue_token, user_id, stake, power, status, match_id, created_at, matched_at, expires_at
		FROM match_queue WHERE queue_token=$1 AND user_id=$2
	`, queueToken, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueueEntryGone
		}
		return nil, err
	}
	return &entry, nil
}

// Leave cancels a waiting queue entry. Already-matched entries cannot be left.
func (mm *Matchmaker) Leave(queueToken string, userID int) error {
	res, err := mm.db.Exec(`
		UPDATE match_queue SET status=$1 WHERE queue_token=$2 AND user_id=$3 AND status=$4
	`, models.QueueExpired, queueToken, userID, models.QueueWaiting)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQueueEntryGone
	}
	return nil
}

// Run loops until the context is cancelled, pairing queued players and
// expiring stale entries every poll interval.
func (mm *Matchmaker) Run(ctx context.Context) {
	interval := time.Duration(mm.cfg.MatchmakerPollSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[MATCHMAKER] Worker started (poll=%s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[MATCHMAKER] Worker stopped")
			return
		case <-ticker.C:
			if err := mm.evictExpired(); err != nil {
				log.Printf("[MATCHMAKER] Evict pass failed: %v", err)
			}
			if err := mm.pairOnce(); err != nil {
				log.Printf("[MATCHMAKER] Pairing pass failed: %v", err)
			}
		}
	}
}

func (mm *Matchmaker) evictExpired() error {
	res, err := mm.db.Exec(`
		UPDATE match_queue SET status=$1 WHERE status=$2 AND expires_at < NOW()
	`, models.QueueExpired, models.QueueWaiting)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[MATCHMAKER] Expired %d stale queue entries", n)
	}
	return nil
}

// pairOnce claims the current waiting set and greedily pairs compatible
// entries in FIFO order inside one transaction. Entries whose owner can no
// longer cover their stake are dropped from the queue here, so a broke player
// only aborts their own pairing, never the rest of the pass.
func (mm *Matchmaker) pairOnce() error {
	tx, err := mm.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var waiting []models.QueueEntry
	err = tx.Select(&waiting, `
		SELECT id, queue_token, user_id, stake, power, status, created_at, expires_at
		FROM match_queue
		WHERE status=$1 AND expires_at >= NOW()
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
	`, models.QueueWaiting)
	if err != nil {
		return err
	}
	if len(waiting) < 2 {
		return nil
	}

	type pairing struct {
		match  *models.Match
		tokens [2]string
	}
	var created []pairing
	for i := range waiting {
		// Keep searching for this entry until it is matched, dropped for
		// insufficient funds, or out of compatible opponents.
		for waiting[i].Status == models.QueueWaiting {
			j := FindOpponent(&waiting[i], waiting[i+1:], mm.cfg.PowerTolerance)
			if j < 0 {
				break
			}
			opp := &waiting[i+1+j]

			// Re-check both balances under the user row lock before
			// escrowing. A player who spent their coins after queueing
			// leaves the queue here instead of failing the debit below.
			dropped, err := mm.dropUnderfunded(tx, &waiting[i], opp)
			if err != nil {
				return err
			}
			if dropped {
				continue
			}

			match, err := CreateMatch(tx, &waiting[i], opp)
			if err != nil {
				return err
			}
			waiting[i].Status = models.QueueMatched
			opp.Status = models.QueueMatched
			created = append(created, pairing{match, [2]string{waiting[i].QueueToken, opp.QueueToken}})
		}
	}

	if len(created) == 0 {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pairing: %w", err)
	}

	if mm.notifier != nil {
		for _, c := range created {
			mm.notifier.MatchFound(c.tokens[0], c.match)
			mm.notifier.MatchFound(c.tokens[1], c.match)
		}
	}
	return nil
}

// dropUnderfunded expires any of the given entries whose owner's live coin
// balance no longer covers their stake. The user rows stay locked for the rest
// of the transaction, so a passing check here guarantees the escrow debit.
func (mm *Matchmaker) dropUnderfunded(tx *sqlx.Tx, entries ...*models.QueueEntry) (bool, error) {
	dropped := false
	for _, e := range entries {
		var coins int64
		if err := tx.Get(&coins, `SELECT coins FROM users WHERE id=$1 FOR UPDATE`, e.UserID); err != nil {
			return false, err
		}
		if coins >= e.Stake {
			continue
		}
		if _, err := tx.Exec(`
			UPDATE match_queue SET status=$1 WHERE id=$2 AND status=$3
		`, models.QueueExpired, e.ID, models.QueueWaiting); err != nil {
			return false, err
		}
		e.Status = models.QueueExpired
		dropped = true
		log.Printf("[MATCHMAKER] Dropped user %d from queue: balance %d cannot cover stake %d", e.UserID, coins, e.Stake)
	}
	return dropped, nil
}

// FindOpponent returns the index in candidates of the first entry compatible
// with e, or -1. Compatible means still waiting, the same stake, a different
// user, and power ratings within the tolerance fraction of the larger of the
// two.
func FindOpponent(e *models.QueueEntry, candidates []models.QueueEntry, tolerance float64) int {
	for i := range candidates {
		c := &candidates[i]
		if c.Status == models.QueueMatched || c.Status == models.QueueExpired {
			continue
		}
		if c.UserID == e.UserID || c.Stake != e.Stake {
			continue
		}
		larger := e.Power
		if c.Power > larger {
			larger = c.Power
		}
		if larger == 0 || absFloat(e.Power-c.Power) <= larger*tolerance {
			return i
		}
	}
	return -1
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
