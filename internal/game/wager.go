package game

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ledger"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchAlreadyScored = errors.New("score already submitted for this match")
	ErrMatchNotSettleable = errors.New("match is not ready to settle")
)

// ComputePayout splits a pot between winner and house. The fee is the exact
// remainder after the floored payout, so payout + fee == pot always.
func ComputePayout(stakeA, stakeB int64, feeRate float64) (payout, fee int64) {
	pot := stakeA + stakeB
	payout = int64(math.Floor(float64(pot) * (1 - feeRate)))
	fee = pot - payout
	return payout, fee
}

// CreateMatch escrows both players' stakes and creates a pending match. Both
// debits go through the ledger inside the caller's transaction; the caller
// verifies both balances under row locks first, so a debit failure here is an
// infrastructure error, not a foreseeable shortfall.
func CreateMatch(tx *sqlx.Tx, entryA, entryB *models.QueueEntry) (*models.Match, error) {
	if entryA.Stake != entryB.Stake {
		return nil, fmt.Errorf("stake mismatch: %d vs %d", entryA.Stake, entryB.Stake)
	}

	match := &models.Match{
		Player1ID: entryA.UserID,
		Player2ID: entryB.UserID,
		Stake:     entryA.Stake,
		Status:    models.MatchPending,
	}
	err := tx.QueryRowx(`
		INSERT INTO matches (player1_id, player2_id, stake, status, created_at)
		VALUES ($1,$2,$3,$4,NOW())
		RETURNING id, created_at
	`, match.Player1ID, match.Player2ID, match.Stake, match.Status).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}

	ref := sql.NullInt64{Int64: int64(match.ID), Valid: true}
	desc := fmt.Sprintf("Wager stake (match %d)", match.ID)
	if _, err := ledger.Debit(tx, entryA.UserID, models.CurrencyCoins, entryA.Stake,
		models.LedgerWagerStake, desc, ref, ledger.RefMatch); err != nil {
		return nil, err
	}
	if _, err := ledger.Debit(tx, entryB.UserID, models.CurrencyCoins, entryB.Stake,
		models.LedgerWagerStake, desc, ref, ledger.RefMatch); err != nil {
		return nil, err
	}

	for _, e := range []*models.QueueEntry{entryA, entryB} {
		res, err := tx.Exec(`
			UPDATE match_queue SET status=$1, match_id=$2, matched_at=NOW()
			WHERE id=$3 AND status=$4
		`, models.QueueMatched, match.ID, e.ID, models.QueueWaiting)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("queue entry %d no longer waiting", e.ID)
		}
	}

	log.Printf("[MATCH] Created match %d: user %d vs user %d, stake %d",
		match.ID, match.Player1ID, match.Player2ID, match.Stake)
	return match, nil
}

// SubmitMatchScore records one player's score for a pending match. When the
// second score lands the match settles in the same transaction: winner takes
// floor(pot*(1-fee)), the remainder is the house fee, and a draw refunds both
// stakes in full.
func SubmitMatchScore(db *sqlx.DB, cfg *config.Config, matchID, userID int, score int64) (*models.Match, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var match models.Match
	err = tx.Get(&match, `
		SELECT id, player1_id, player2_id, stake, status, player1_score, player2_score,
		       winner_id, payout, house_fee, created_at, settled_at
		FROM matches WHERE id=$1 FOR UPDATE
	`, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Status != models.MatchPending {
		return nil, ErrMatchNotSettleable
	}

	var col string
	switch userID {
	case match.Player1ID:
		if match.Player1Score.Valid {
			return nil, ErrMatchAlreadyScored
		}
		col = "player1_score"
		match.Player1Score = sql.NullInt64{Int64: score, Valid: true}
	case match.Player2ID:
		if match.Player2Score.Valid {
			return nil, ErrMatchAlreadyScored
		}
		col = "player2_score"
		match.Player2Score = sql.NullInt64{Int64: score, Valid: true}
	default:
		return nil, ErrMatchNotFound
	}

	if _, err := tx.Exec(fmt.Sprintf(`UPDATE matches SET %s=$1 WHERE id=$2`, col), score, matchID); err != nil {
		return nil, err
	}

	if match.Player1Score.Valid && match.Player2Score.Valid {
		if err := settleMatch(tx, cfg, &match); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit match score: %w", err)
	}
	return &match, nil
}

// MatchOutcome is the pure resolution of a fully scored match.
type MatchOutcome struct {
	Draw     bool
	WinnerID int
	Payout   int64
	HouseFee int64
}

// DecideMatch resolves two submitted scores. Equal scores draw with no payout
// and no house cut; otherwise the higher score takes floor(pot*(1-fee)).
func DecideMatch(p1ID, p2ID int, s1, s2, stake int64, feeRate float64) MatchOutcome {
	if s1 == s2 {
		return MatchOutcome{Draw: true}
	}
	winnerID := p1ID
	if s2 > s1 {
		winnerID = p2ID
	}
	payout, fee := ComputePayout(stake, stake, feeRate)
	return MatchOutcome{WinnerID: winnerID, Payout: payout, HouseFee: fee}
}

func settleMatch(tx *sqlx.Tx, cfg *config.Config, match *models.Match) error {
	outcome := DecideMatch(match.Player1ID, match.Player2ID,
		match.Player1Score.Int64, match.Player2Score.Int64, match.Stake, cfg.HouseFeeRate)
	ref := sql.NullInt64{Int64: int64(match.ID), Valid: true}

	if outcome.Draw {
		// Draw: both stakes come back untouched, no house cut.
		for _, uid := range []int{match.Player1ID, match.Player2ID} {
			if _, err := ledger.Credit(tx, uid, models.CurrencyCoins, match.Stake,
				models.LedgerWagerPayout, fmt.Sprintf("Wager refund, draw (match %d)", match.ID),
				ref, ledger.RefMatch); err != nil {
				return err
			}
		}
		match.Payout = sql.NullInt64{Int64: 0, Valid: true}
		match.HouseFee = sql.NullInt64{Int64: 0, Valid: true}
	} else {
		if _, err := ledger.Credit(tx, outcome.WinnerID, models.CurrencyCoins, outcome.Payout,
			models.LedgerWagerPayout, fmt.Sprintf("Wager payout (match %d)", match.ID),
			ref, ledger.RefMatch); err != nil {
			return err
		}
		match.WinnerID = sql.NullInt64{Int64: int64(outcome.WinnerID), Valid: true}
		match.Payout = sql.NullInt64{Int64: outcome.Payout, Valid: true}
		match.HouseFee = sql.NullInt64{Int64: outcome.HouseFee, Valid: true}
	}

	// Both players played a wagered game, draw or not; only the winner gets
	// the win counter.
	if _, err := tx.Exec(`
		UPDATE users SET total_games_played = total_games_played + 1, last_active = NOW()
		WHERE id IN ($1,$2)
	`, match.Player1ID, match.Player2ID); err != nil {
		return err
	}
	if !outcome.Draw {
		if _, err := tx.Exec(`
			UPDATE users SET total_games_won = total_games_won + 1 WHERE id=$1
		`, outcome.WinnerID); err != nil {
			return err
		}
	}

	res, err := tx.Exec(`
		UPDATE matches SET status=$1, winner_id=$2, payout=$3, house_fee=$4, settled_at=NOW()
		WHERE id=$5 AND status=$6
	`, models.MatchSettled, match.WinnerID, match.Payout, match.HouseFee,
		match.ID, models.MatchPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMatchNotSettleable
	}
	match.Status = models.MatchSettled

	log.Printf("[MATCH] Settled match %d: scores %d/%d, winner=%d payout=%d fee=%d",
		match.ID, match.Player1Score.Int64, match.Player2Score.Int64,
		match.WinnerID.Int64, match.Payout.Int64, match.HouseFee.Int64)
	return nil
}

// GetMatch loads a match visible to the given player.
func GetMatch(db *sqlx.DB, matchID, userID int) (*models.Match, error) {
	var match models.Match
	err := db.Get(&match, `
		SELECT id, player1_id, player2_id, stake, status, player1_score, player2_score,
		       winner_id, payout, house_fee, created_at, settled_at
		FROM matches WHERE id=$1 AND (player1_id=$2 OR player2_id=$2)
	`, matchID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}
