package missions

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ledger"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrNotCompleted    = errors.New("mission not completed")
	ErrAlreadyClaimed  = errors.New("already claimed")
)

// ProgressEvent is the normalized outcome pushed from settlement into mission
// progress. One event per settled run.
type ProgressEvent struct {
	UserID           int
	GamesPlayed      int64
	CoinsCollected   int64
	MaxArmy          int64
	DidFinish        bool
	TimeTaken        float64
	DistanceTraveled float64
	EnemiesKilled    int64
}

// PeriodKey returns the bucket a mission's progress accrues in: one key per
// day for daily missions, one per ISO week for weekly ones.
func PeriodKey(cadence string, now time.Time) string {
	switch cadence {
	case models.CadenceWeekly:
		year, week := now.UTC().ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return now.UTC().Format("2006-01-02")
	}
}

// MetricDelta returns how much an event moves a given metric. Counter metrics
// are additive; max_army is high-water (the caller merges with GREATEST).
func MetricDelta(metric string, ev ProgressEvent) int64 {
	switch metric {
	case models.MetricGamesPlayed:
		return ev.GamesPlayed
	case models.MetricGamesWon:
		if ev.DidFinish {
			return 1
		}
		return 0
	case models.MetricCoins:
		return ev.CoinsCollected
	case models.MetricDistance:
		return int64(ev.DistanceTraveled)
	case models.MetricMaxArmy:
		return ev.MaxArmy
	case models.MetricKills:
		return ev.EnemiesKilled
	}
	return 0
}

// IsHighWaterMetric reports whether a metric tracks a maximum rather than a
// running sum.
func IsHighWaterMetric(metric string) bool {
	return metric == models.MetricMaxArmy
}

// Service owns mission catalog reads and per-user progress rows.
type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// AdvanceWithTx applies one progress event to every active mission inside the
// caller's transaction (settlement owns the transaction, so a failed
// settlement never leaves stray progress). Returns newly completed missions.
func (s *Service) AdvanceWithTx(tx *sqlx.Tx, ev ProgressEvent, now time.Time) ([]models.Mission, error) {
	var catalog []models.Mission
	if err := tx.Select(&catalog, `
		SELECT id, code, title, cadence, metric, target, reward_coins, reward_gems, active
		FROM missions WHERE active ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("failed to load mission catalog: %w", err)
	}

	var completed []models.Mission
	for _, m := range catalog {
		delta := MetricDelta(m.Metric, ev)
		if delta == 0 {
			continue
		}
		period := PeriodKey(m.Cadence, now)

		var progress int64
		var wasCompleted bool
		var query string
		if IsHighWaterMetric(m.Metric) {
			query = `
				INSERT INTO user_missions (user_id, mission_id, period_key, progress, created_at)
				VALUES ($1,$2,$3,$4,NOW())
				ON CONFLICT (user_id, mission_id, period_key)
				DO UPDATE SET progress = GREATEST(user_missions.progress, EXCLUDED.progress)
				RETURNING progress, completed`
		} else {
			query = `
				INSERT INTO user_missions (user_id, mission_id, period_key, progress, created_at)
				VALUES ($1,$2,$3,$4,NOW())
				ON CONFLICT (user_id, mission_id, period_key)
				DO UPDATE SET progress = user_missions.progress + EXCLUDED.progress
				RETURNING progress, completed`
		}
		if err := tx.QueryRowx(query, ev.UserID, m.ID, period, delta).Scan(&progress, &wasCompleted); err != nil {
			return nil, fmt.Errorf("failed to advance mission %s: %w", m.Code, err)
		}

		if !wasCompleted && progress >= m.Target {
			if _, err := tx.Exec(`
				UPDATE user_missions SET completed=TRUE
				WHERE user_id=$1 AND mission_id=$2 AND period_key=$3
			`, ev.UserID, m.ID, period); err != nil {
				return nil, fmt.Errorf("failed to complete mission %s: %w", m.Code, err)
			}
			completed = append(completed, m)
			log.Printf("[MISSION] User %d completed %s (%d/%d, period=%s)", ev.UserID, m.Code, progress, m.Target, period)
		}
	}

	return completed, nil
}

// UserMissionView joins a progress row with its catalog definition.
type UserMissionView struct {
	ID          int    `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Title       string `db:"title" json:"title"`
	Cadence     string `db:"cadence" json:"cadence"`
	Metric      string `db:"metric" json:"metric"`
	Target      int64  `db:"target" json:"target"`
	RewardCoins int64  `db:"reward_coins" json:"reward_coins"`
	RewardGems  int64  `db:"reward_gems" json:"reward_gems"`
	Progress    int64  `db:"progress" json:"progress"`
	Completed   bool   `db:"completed" json:"completed"`
	Claimed     bool   `db:"claimed" json:"claimed"`
}

// ListForUser returns the user's progress against every active mission for
// the current period. Missions without a progress row yet show zero progress.
func (s *Service) ListForUser(userID int, now time.Time) ([]UserMissionView, error) {
	daily := PeriodKey(models.CadenceDaily, now)
	weekly := PeriodKey(models.CadenceWeekly, now)

	var views []UserMissionView
	err := s.db.Select(&views, `
		SELECT COALESCE(um.id, 0) AS id, m.code, m.title, m.cadence, m.metric, m.target,
		       m.reward_coins, m.reward_gems,
		       COALESCE(um.progress, 0) AS progress,
		       COALESCE(um.completed, FALSE) AS completed,
		       COALESCE(um.claimed, FALSE) AS claimed
		FROM missions m
		LEFT JOIN user_missions um
		  ON um.mission_id = m.id AND um.user_id = $1
		 AND um.period_key = CASE m.cadence WHEN 'weekly' THEN $3 ELSE $2 END
		WHERE m.active
		ORDER BY m.id
	`, userID, daily, weekly)
	return views, err
}

// ClaimResult reports the reward issued by a successful claim.
type ClaimResult struct {
	Code        string `json:"code"`
	RewardCoins int64  `json:"reward_coins"`
	RewardGems  int64  `json:"reward_gems"`
	NewCoins    int64  `json:"new_coins"`
	NewGems     int64  `json:"new_gems"`
}

// Claim issues a completed mission's reward exactly once. The claimed flag is
// flipped with a compare-and-swap so a replayed claim is rejected with no
// balance change.
func (s *Service) Claim(userID, userMissionID int) (*ClaimResult, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var row struct {
		MissionID   int    `db:"mission_id"`
		Code        string `db:"code"`
		RewardCoins int64  `db:"reward_coins"`
		RewardGems  int64  `db:"reward_gems"`
		Completed   bool   `db:"completed"`
		Claimed     bool   `db:"claimed"`
	}
	err = tx.Get(&row, `
		SELECT um.mission_id, m.code, m.reward_coins, m.reward_gems, um.completed, um.claimed
		FROM user_missions um
		JOIN missions m ON m.id = um.mission_id
		WHERE um.id=$1 AND um.user_id=$2
		FOR UPDATE OF um
	`, userMissionID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}

	if row.Claimed {
		return nil, ErrAlreadyClaimed
	}
	if !row.Completed {
		return nil, ErrNotCompleted
	}

	res, err := tx.Exec(`
		UPDATE user_missions SET claimed=TRUE, claimed_at=NOW()
		WHERE id=$1 AND completed AND NOT claimed
	`, userMissionID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost the race to a concurrent claim.
		return nil, ErrAlreadyClaimed
	}

	result := &ClaimResult{Code: row.Code, RewardCoins: row.RewardCoins, RewardGems: row.RewardGems}
	ref := sql.NullInt64{Int64: int64(row.MissionID), Valid: true}

	if row.RewardCoins > 0 {
		newCoins, err := ledger.Credit(tx, userID, models.CurrencyCoins, row.RewardCoins,
			models.LedgerMissionReward, fmt.Sprintf("Mission reward: %s", row.Code), ref, ledger.RefMission)
		if err != nil {
			return nil, err
		}
		result.NewCoins = newCoins
	}
	if row.RewardGems > 0 {
		newGems, err := ledger.Credit(tx, userID, models.CurrencyGems, row.RewardGems,
			models.LedgerMissionReward, fmt.Sprintf("Mission reward: %s", row.Code), ref, ledger.RefMission)
		if err != nil {
			return nil, err
		}
		result.NewGems = newGems
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	log.Printf("[MISSION] User %d claimed %s (+%d coins, +%d gems)", userID, row.Code, row.RewardCoins, row.RewardGems)
	return result, nil
}
