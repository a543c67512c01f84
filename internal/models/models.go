package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Upgrade track names. Levels are unbounded non-negative integers.
const (
	UpgradeCapacity     = "capacity"
	UpgradeStartingArmy = "starting_army"
	UpgradeWarriorPower = "warrior_power"
	UpgradeIncome       = "income"
	UpgradeSpeed        = "speed"
	UpgradeJump         = "jump"
	UpgradeRangedDamage = "ranged_damage"
	UpgradePickupRadius = "pickup_radius"
)

// AllUpgrades lists every upgrade track in a stable order.
var AllUpgrades = []string{
	UpgradeCapacity,
	UpgradeStartingArmy,
	UpgradeWarriorPower,
	UpgradeIncome,
	UpgradeSpeed,
	UpgradeJump,
	UpgradeRangedDamage,
	UpgradePickupRadius,
}

// UpgradeLevels maps upgrade track -> level. Stored as JSONB.
type UpgradeLevels map[string]int

func (u UpgradeLevels) Value() (driver.Value, error) {
	if u == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(u)
}

func (u *UpgradeLevels) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, u)
	case string:
		return json.Unmarshal([]byte(v), u)
	case nil:
		*u = UpgradeLevels{}
		return nil
	}
	return fmt.Errorf("unsupported type %T for UpgradeLevels", src)
}

// Level returns the level for a track, defaulting to 0 for unknown tracks.
func (u UpgradeLevels) Level(track string) int {
	if u == nil {
		return 0
	}
	return u[track]
}

// Clone returns an independent copy, used when snapshotting at run start.
func (u UpgradeLevels) Clone() UpgradeLevels {
	out := make(UpgradeLevels, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// User represents a player account
type User struct {
	ID          int           `db:"id" json:"id"`
	ExternalID  string        `db:"external_id" json:"external_id"`
	Email       string        `db:"email" json:"email"`
	DisplayName string        `db:"display_name" json:"display_name"`
	AvatarURL   string        `db:"avatar_url" json:"avatar_url,omitempty"`
	Coins       int64         `db:"coins" json:"coins"`
	Gems        int64         `db:"gems" json:"gems"`
	Upgrades    UpgradeLevels `db:"upgrades" json:"upgrades"`

	// Monotonic stats
	TotalGamesPlayed    int     `db:"total_games_played" json:"total_games_played"`
	TotalGamesWon       int     `db:"total_games_won" json:"total_games_won"`
	TotalDistance       float64 `db:"total_distance" json:"total_distance"`
	TotalCoinsCollected int64   `db:"total_coins_collected" json:"total_coins_collected"`
	BestScore           int64   `db:"best_score" json:"best_score"`
	HighestArmy         int     `db:"highest_army" json:"highest_army"`

	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	LastActive sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// Run statuses
const (
	RunPending    = "pending"
	RunInProgress = "in_progress"
	RunFinished   = "finished"
	RunRejected   = "rejected"
	RunCancelled  = "cancelled"
)

// Run represents one attempt at the track. The upgrade snapshot is frozen at
// creation; anti-cheat bounds always use the snapshot, never live upgrades.
type Run struct {
	ID          int           `db:"id" json:"id"`
	RunToken    string        `db:"run_token" json:"run_token"`
	UserID      int           `db:"user_id" json:"user_id"`
	Seed        int64         `db:"seed" json:"seed"`
	Difficulty  float64       `db:"difficulty" json:"difficulty"`
	TrackLength int           `db:"track_length" json:"track_length"`
	Snapshot    UpgradeLevels `db:"upgrade_snapshot" json:"upgrade_snapshot"`
	Status      string        `db:"status" json:"status"`

	// Outcome fields, populated once the run finishes
	DistanceTraveled sql.NullFloat64 `db:"distance_traveled" json:"distance_traveled,omitempty"`
	CoinsCollected   sql.NullInt64   `db:"coins_collected" json:"coins_collected,omitempty"`
	TimeTaken        sql.NullFloat64 `db:"time_taken" json:"time_taken,omitempty"`
	MaxArmy          sql.NullInt64   `db:"max_army" json:"max_army,omitempty"`
	EnemiesKilled    sql.NullInt64   `db:"enemies_killed" json:"enemies_killed,omitempty"`
	DidFinish        sql.NullBool    `db:"did_finish" json:"did_finish,omitempty"`
	FinalScore       sql.NullInt64   `db:"final_score" json:"final_score,omitempty"`
	Reward           sql.NullInt64   `db:"reward" json:"reward,omitempty"`
	RejectReason     sql.NullString  `db:"reject_reason" json:"reject_reason,omitempty"`

	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	FinishedAt sql.NullTime `db:"finished_at" json:"finished_at,omitempty"`
}

// RunOutcome is the client-submitted result of a run.
type RunOutcome struct {
	FinalScore       int64   `json:"final_score"`
	CoinsCollected   int64   `json:"coins_collected"`
	MaxArmy          int     `json:"max_army"`
	DistanceTraveled float64 `json:"distance_traveled"`
	TimeTaken        float64 `json:"time_taken"`
	DidFinish        bool    `json:"did_finish"`
	EnemiesKilled    int64   `json:"enemies_killed"`
}

// Currencies
const (
	CurrencyCoins = "coins"
	CurrencyGems  = "gems"
)

// Ledger entry categories
const (
	LedgerGameReward      = "GAME_REWARD"
	LedgerMissionReward   = "MISSION_REWARD"
	LedgerUpgradePurchase = "UPGRADE_PURCHASE"
	LedgerShopPurchase    = "SHOP_PURCHASE"
	LedgerWagerStake      = "WAGER_STAKE"
	LedgerWagerPayout     = "WAGER_PAYOUT"
)

// LedgerEntry is an immutable audit record of a single balance change.
// Invariant: BalanceAfter == BalanceBefore + Amount.
type LedgerEntry struct {
	ID            int            `db:"id" json:"id"`
	UserID        int            `db:"user_id" json:"user_id"`
	Category      string         `db:"category" json:"category"`
	Currency      string         `db:"currency" json:"currency"`
	Amount        int64          `db:"amount" json:"amount"`
	BalanceBefore int64          `db:"balance_before" json:"balance_before"`
	BalanceAfter  int64          `db:"balance_after" json:"balance_after"`
	Description   string         `db:"description" json:"description,omitempty"`
	RefType       sql.NullString `db:"ref_type" json:"ref_type,omitempty"`
	RefID         sql.NullInt64  `db:"ref_id" json:"ref_id,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// Match statuses
const (
	MatchPending = "pending"
	MatchSettled = "settled"
)

// Match represents a wagered head-to-head match between two players.
type Match struct {
	ID           int           `db:"id" json:"id"`
	Player1ID    int           `db:"player1_id" json:"player1_id"`
	Player2ID    int           `db:"player2_id" json:"player2_id"`
	Stake        int64         `db:"stake" json:"stake"`
	Status       string        `db:"status" json:"status"`
	Player1Score sql.NullInt64 `db:"player1_score" json:"player1_score,omitempty"`
	Player2Score sql.NullInt64 `db:"player2_score" json:"player2_score,omitempty"`
	WinnerID     sql.NullInt64 `db:"winner_id" json:"winner_id,omitempty"`
	Payout       sql.NullInt64 `db:"payout" json:"payout,omitempty"`
	HouseFee     sql.NullInt64 `db:"house_fee" json:"house_fee,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	SettledAt    sql.NullTime  `db:"settled_at" json:"settled_at,omitempty"`
}

// Queue entry statuses
const (
	QueueWaiting = "queued"
	QueueMatched = "matched"
	QueueExpired = "expired"
)

// QueueEntry represents a player waiting for a wagered match.
type QueueEntry struct {
	ID         int           `db:"id" json:"id"`
	QueueToken string        `db:"queue_token" json:"queue_token"`
	UserID     int           `db:"user_id" json:"user_id"`
	Stake      int64         `db:"stake" json:"stake"`
	Power      float64       `db:"power" json:"power"`
	Status     string        `db:"status" json:"status"`
	MatchID    sql.NullInt64 `db:"match_id" json:"match_id,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	MatchedAt  sql.NullTime  `db:"matched_at" json:"matched_at,omitempty"`
	ExpiresAt  time.Time     `db:"expires_at" json:"expires_at"`
}

// Mission cadences and metrics
const (
	CadenceDaily  = "daily"
	CadenceWeekly = "weekly"

	MetricGamesPlayed = "games_played"
	MetricGamesWon    = "games_won"
	MetricCoins       = "coins_collected"
	MetricDistance    = "distance"
	MetricMaxArmy     = "max_army"
	MetricKills       = "enemies_killed"
)

// Mission is a catalog definition.
type Mission struct {
	ID          int    `db:"id" json:"id"`
	Code        string `db:"code" json:"code"`
	Title       string `db:"title" json:"title"`
	Cadence     string `db:"cadence" json:"cadence"`
	Metric      string `db:"metric" json:"metric"`
	Target      int64  `db:"target" json:"target"`
	RewardCoins int64  `db:"reward_coins" json:"reward_coins"`
	RewardGems  int64  `db:"reward_gems" json:"reward_gems"`
	Active      bool   `db:"active" json:"active"`
}

// Admin is a back-office account authenticated by a bcrypt-hashed token.
type Admin struct {
	ID          int       `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	TokenHash   string    `db:"token_hash" json:"-"`
	Roles       string    `db:"roles" json:"roles"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserMission tracks a player's progress against a mission for one period.
// Claimed, once true, is permanent.
type UserMission struct {
	ID        int          `db:"id" json:"id"`
	UserID    int          `db:"user_id" json:"user_id"`
	MissionID int          `db:"mission_id" json:"mission_id"`
	PeriodKey string       `db:"period_key" json:"period_key"`
	Progress  int64        `db:"progress" json:"progress"`
	Completed bool         `db:"completed" json:"completed"`
	Claimed   bool         `db:"claimed" json:"claimed"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	ClaimedAt sql.NullTime `db:"claimed_at" json:"claimed_at,omitempty"`
}
