package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Reference types for the optional foreign reference on a ledger entry.
const (
	RefRun     = "RUN"
	RefMatch   = "MATCH"
	RefMission = "MISSION"
)

func balanceColumn(currency string) (string, error) {
	switch currency {
	case models.CurrencyCoins:
		return "coins", nil
	case models.CurrencyGems:
		return "gems", nil
	}
	return "", fmt.Errorf("unknown currency %q", currency)
}

// Credit adds amount to a user's balance and appends the matching audit entry,
// all within the caller's transaction. Returns the new balance.
func Credit(tx *sqlx.Tx, userID int, currency string, amount int64, category, description string, ref sql.NullInt64, refType string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("tx is nil")
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return apply(tx, userID, currency, amount, category, description, ref, refType)
}

// Debit subtracts amount from a user's balance, rejecting any spend that would
// take the balance below zero, and appends the matching audit entry.
func Debit(tx *sqlx.Tx, userID int, currency string, amount int64, category, description string, ref sql.NullInt64, refType string) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("tx is nil")
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return apply(tx, userID, currency, -amount, category, description, ref, refType)
}

// apply locks the user row, checks the spend floor, moves the balance and
// inserts the ledger row. amount is signed.
func apply(tx *sqlx.Tx, userID int, currency string, amount int64, category, description string, ref sql.NullInt64, refType string) (int64, error) {
	col, err := balanceColumn(currency)
	if err != nil {
		return 0, err
	}

	var before int64
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1 FOR UPDATE`, col)
	if err := tx.Get(&before, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	after := before + amount
	if after < 0 {
		return 0, ErrInsufficientFunds
	}

	update := fmt.Sprintf(`UPDATE users SET %s=$1 WHERE id=$2`, col)
	if _, err := tx.Exec(update, after, userID); err != nil {
		return 0, err
	}

	refTypeVal := sql.NullString{String: refType, Valid: refType != "" && ref.Valid}
	if _, err := tx.Exec(`
		INSERT INTO ledger_entries (user_id, category, currency, amount, balance_before, balance_after, description, ref_type, ref_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
	`, userID, category, currency, amount, before, after, description, refTypeVal, ref); err != nil {
		return 0, err
	}

	log.Printf("[LEDGER] user=%d %s %+d %s (%d -> %d) cat=%s ref=%v desc=%s",
		userID, currency, amount, currency, before, after, category, ref, description)

	return after, nil
}

// History returns a user's ledger entries, newest first.
func History(db *sqlx.DB, userID int, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.LedgerEntry
	err := db.Select(&entries, `
		SELECT id, user_id, category, currency, amount, balance_before, balance_after, description, ref_type, ref_id, created_at
		FROM ledger_entries
		WHERE user_id=$1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	return entries, err
}

// Reconstruct replays entries in insertion order and returns the implied final
// balance per currency. Auditing: the result must match the live balances.
func Reconstruct(entries []models.LedgerEntry) (map[string]int64, error) {
	balances := map[string]int64{}
	seen := map[string]bool{}
	for _, e := range entries {
		if e.BalanceAfter != e.BalanceBefore+e.Amount {
			return nil, fmt.Errorf("entry %d violates balance_after == balance_before + amount", e.ID)
		}
		if seen[e.Currency] && balances[e.Currency] != e.BalanceBefore {
			return nil, fmt.Errorf("entry %d balance_before %d does not chain from %d", e.ID, e.BalanceBefore, balances[e.Currency])
		}
		balances[e.Currency] = e.BalanceAfter
		seen[e.Currency] = true
	}
	return balances, nil
}

// Verify replays a user's full ledger in id order and compares against the
// user's live balances. Used by the admin reconcile endpoint.
func Verify(db *sqlx.DB, userID int) (bool, map[string]int64, error) {
	var entries []models.LedgerEntry
	if err := db.Select(&entries, `
		SELECT id, user_id, category, currency, amount, balance_before, balance_after, description, ref_type, ref_id, created_at
		FROM ledger_entries WHERE user_id=$1 ORDER BY id ASC
	`, userID); err != nil {
		return false, nil, err
	}

	replayed, err := Reconstruct(entries)
	if err != nil {
		return false, nil, err
	}

	var live struct {
		Coins int64 `db:"coins"`
		Gems  int64 `db:"gems"`
	}
	if err := db.Get(&live, `SELECT coins, gems FROM users WHERE id=$1`, userID); err != nil {
		return false, nil, err
	}

	// A currency with no entries must still be at zero to reconcile.
	ok := replayed[models.CurrencyCoins] == live.Coins && replayed[models.CurrencyGems] == live.Gems
	return ok, replayed, nil
}
