package game

import (
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunNotInProgress = errors.New("run not in progress")
	ErrAlreadySettled   = errors.New("run already settled")
)

// StartRun creates a new run for the user: a fresh seed, the track length for
// the requested difficulty, and a frozen copy of the player's upgrade levels.
// The snapshot is what anti-cheat bounds are checked against at settlement.
func StartRun(db *sqlx.DB, cfg *config.Config, userID int, difficulty float64) (*models.Run, error) {
	if difficulty <= 0 {
		difficulty = 1
	}

	var upgrades models.UpgradeLevels
	if err := db.Get(&upgrades, `SELECT upgrades FROM users WHERE id=$1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d not found", userID)
		}
		return nil, err
	}

	run := &models.Run{
		RunToken:    uuid.NewString(),
		UserID:      userID,
		Seed:        randomSeed(),
		Difficulty:  difficulty,
		TrackLength: trackLength(cfg, difficulty),
		Snapshot:    upgrades.Clone(),
		Status:      models.RunInProgress,
	}

	err := db.QueryRowx(`
		INSERT INTO runs (run_token, user_id, seed, difficulty, track_length, upgrade_snapshot, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		RETURNING id, created_at
	`, run.RunToken, run.UserID, run.Seed, run.Difficulty, run.TrackLength, run.Snapshot, run.Status).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	log.Printf("[RUN] Started run %s for user %d (seed=%d track=%dm difficulty=%.2f)",
		run.RunToken, userID, run.Seed, run.TrackLength, difficulty)

	return run, nil
}

// GetRun loads a run by its external token.
func GetRun(db *sqlx.DB, runToken string) (*models.Run, error) {
	var run models.Run
	err := db.Get(&run, `
		SELECT id, run_token, user_id, seed, difficulty, track_length, upgrade_snapshot, status,
		       distance_traveled, coins_collected, time_taken, max_army, enemies_killed, did_finish,
		       final_score, reward, reject_reason, created_at, finished_at
		FROM runs WHERE run_token=$1
	`, runToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

func trackLength(cfg *config.Config, difficulty float64) int {
	return int(math.Round(float64(cfg.BaseTrackLength) * difficulty))
}

func randomSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	// Keep seeds positive so clients can treat them as plain numbers.
	return int64(binary.BigEndian.Uint64(b[:]) >> 1)
}
