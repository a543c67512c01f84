package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/economy"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ledger"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUnknownUpgrade = errors.New("unknown upgrade track")
	ErrInvalidAmount  = errors.New("amount must be positive")
)

// GetOrCreateUser upserts a player on login, keyed by the identity provider's
// subject. Profile fields refresh on every login; balances and upgrades are
// never touched here.
func GetOrCreateUser(db *sqlx.DB, externalID, email, displayName, avatarURL string) (*models.User, error) {
	var user models.User
	err := db.Get(&user, `
		INSERT INTO users (external_id, email, display_name, avatar_url, created_at, last_active)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			last_active = NOW()
		RETURNING id, external_id, email, display_name, avatar_url, coins, gems, upgrades,
		          total_games_played, total_games_won, total_distance, total_coins_collected,
		          best_score, highest_army, created_at, last_active
	`, externalID, email, displayName, avatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &user, nil
}

// GetUser loads a player by internal id.
func GetUser(db *sqlx.DB, userID int) (*models.User, error) {
	var user models.User
	err := db.Get(&user, `
		SELECT id, external_id, email, display_name, avatar_url, coins, gems, upgrades,
		       total_games_played, total_games_won, total_distance, total_coins_collected,
		       best_score, highest_army, created_at, last_active
		FROM users WHERE id=$1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// PurchaseResult reports a completed upgrade purchase.
type PurchaseResult struct {
	Track    string `json:"track"`
	NewLevel int    `json:"new_level"`
	Cost     int64  `json:"cost"`
	NewCoins int64  `json:"new_coins"`
	NextCost int64  `json:"next_cost"`
}

// PurchaseUpgrade buys the next level of an upgrade track. The cost is read
// from the level the user holds at the moment the row lock is taken, so two
// concurrent purchases of the same track each pay their own level's price.
func PurchaseUpgrade(db *sqlx.DB, userID int, track string) (*PurchaseResult, error) {
	if !economy.KnownUpgrade(track) {
		return nil, ErrUnknownUpgrade
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var upgrades models.UpgradeLevels
	err = tx.Get(&upgrades, `SELECT upgrades FROM users WHERE id=$1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	level := upgrades.Level(track)
	cost := economy.Cost(track, level)

	newCoins, err := ledger.Debit(tx, userID, models.CurrencyCoins, cost,
		models.LedgerUpgradePurchase,
		fmt.Sprintf("Upgrade %s to level %d", track, level+1),
		sql.NullInt64{}, "")
	if err != nil {
		return nil, err
	}

	next := upgrades.Clone()
	next[track] = level + 1
	if _, err := tx.Exec(`UPDATE users SET upgrades=$1 WHERE id=$2`, next, userID); err != nil {
		return nil, fmt.Errorf("failed to update upgrades: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	log.Printf("[SHOP] User %d bought %s level %d for %d coins", userID, track, level+1, cost)
	return &PurchaseResult{
		Track:    track,
		NewLevel: level + 1,
		Cost:     cost,
		NewCoins: newCoins,
		NextCost: economy.Cost(track, level+1),
	}, nil
}

// ExchangeResult reports a gems-to-coins conversion.
type ExchangeResult struct {
	GemsSpent   int64 `json:"gems_spent"`
	CoinsBought int64 `json:"coins_bought"`
	NewGems     int64 `json:"new_gems"`
	NewCoins    int64 `json:"new_coins"`
}

// ExchangeGems converts gems to coins at the configured rate. Both legs run
// in one transaction and both appear in the ledger.
func ExchangeGems(db *sqlx.DB, cfg *config.Config, userID int, gems int64) (*ExchangeResult, error) {
	if gems <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	coins := gems * cfg.GemExchangeRate
	desc := fmt.Sprintf("Exchange %d gems for %d coins", gems, coins)

	newGems, err := ledger.Debit(tx, userID, models.CurrencyGems, gems,
		models.LedgerShopPurchase, desc, sql.NullInt64{}, "")
	if err != nil {
		return nil, err
	}
	newCoins, err := ledger.Credit(tx, userID, models.CurrencyCoins, coins,
		models.LedgerShopPurchase, desc, sql.NullInt64{}, "")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit exchange: %w", err)
	}

	log.Printf("[SHOP] User %d exchanged %d gems for %d coins", userID, gems, coins)
	return &ExchangeResult{GemsSpent: gems, CoinsBought: coins, NewGems: newGems, NewCoins: newCoins}, nil
}
