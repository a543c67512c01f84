package game

import (
	"testing"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
)

func entry(id, userID int, stake int64, power float64) models.QueueEntry {
	return models.QueueEntry{ID: id, UserID: userID, Stake: stake, Power: power}
}

func TestFindOpponentSameStakeRequired(t *testing.T) {
	e := entry(1, 10, 5, 100)
	candidates := []models.QueueEntry{
		entry(2, 11, 10, 100),
		entry(3, 12, 5, 100),
	}
	if got := FindOpponent(&e, candidates, 0.10); got != 1 {
		t.Errorf("expected index 1 (matching stake), got %d", got)
	}
}

func TestFindOpponentPowerTolerance(t *testing.T) {
	e := entry(1, 10, 5, 100)

	// 110 is within 10% of the larger power (110*0.10 = 11 >= 10).
	if got := FindOpponent(&e, []models.QueueEntry{entry(2, 11, 5, 110)}, 0.10); got != 0 {
		t.Errorf("power 110 vs 100 should match within 10%%, got %d", got)
	}
	// 115 is not (115*0.10 = 11.5 < 15).
	if got := FindOpponent(&e, []models.QueueEntry{entry(2, 11, 5, 115)}, 0.10); got != -1 {
		t.Errorf("power 115 vs 100 should not match within 10%%, got %d", got)
	}
}

func TestFindOpponentToleranceUsesLargerPower(t *testing.T) {
	// Asymmetric check: 100 vs 91 passes because 100*0.10 = 10 >= 9,
	// even though 91*0.10 = 9.1 would also pass; 100 vs 89 fails.
	weak := entry(1, 10, 5, 89)
	if got := FindOpponent(&weak, []models.QueueEntry{entry(2, 11, 5, 100)}, 0.10); got != -1 {
		t.Errorf("power gap 11 over larger 100 should fail, got %d", got)
	}
	ok := entry(1, 10, 5, 91)
	if got := FindOpponent(&ok, []models.QueueEntry{entry(2, 11, 5, 100)}, 0.10); got != 0 {
		t.Errorf("power gap 9 over larger 100 should pass, got %d", got)
	}
}

func TestFindOpponentSkipsSelf(t *testing.T) {
	e := entry(1, 10, 5, 100)
	candidates := []models.QueueEntry{
		entry(2, 10, 5, 100), // same user requeued
		entry(3, 11, 5, 100),
	}
	if got := FindOpponent(&e, candidates, 0.10); got != 1 {
		t.Errorf("expected index 1 (different user), got %d", got)
	}
}

func TestFindOpponentBothZeroPower(t *testing.T) {
	// Two fresh accounts with no upgrades should still be able to match.
	e := entry(1, 10, 5, 0)
	if got := FindOpponent(&e, []models.QueueEntry{entry(2, 11, 5, 0)}, 0.10); got != 0 {
		t.Errorf("two zero-power players should match, got %d", got)
	}
}

func TestFindOpponentFIFO(t *testing.T) {
	e := entry(1, 10, 5, 100)
	candidates := []models.QueueEntry{
		entry(2, 11, 5, 102),
		entry(3, 12, 5, 100), // exact match, but later in the queue
	}
	if got := FindOpponent(&e, candidates, 0.10); got != 0 {
		t.Errorf("first compatible candidate wins, got %d", got)
	}
}

func TestFindOpponentSkipsNonWaitingEntries(t *testing.T) {
	// Entries dropped mid-pass (expired for insufficient funds, or already
	// matched) must not be offered again as opponents.
	e := entry(1, 10, 5, 100)
	expired := entry(2, 11, 5, 100)
	expired.Status = models.QueueExpired
	paired := entry(3, 12, 5, 100)
	paired.Status = models.QueueMatched
	fresh := entry(4, 13, 5, 100)
	fresh.Status = models.QueueWaiting

	candidates := []models.QueueEntry{expired, paired, fresh}
	if got := FindOpponent(&e, candidates, 0.10); got != 2 {
		t.Errorf("expected index 2 (only waiting candidate), got %d", got)
	}

	if got := FindOpponent(&e, []models.QueueEntry{expired, paired}, 0.10); got != -1 {
		t.Errorf("expected -1 with no waiting candidates, got %d", got)
	}
}

func TestFindOpponentEmpty(t *testing.T) {
	e := entry(1, 10, 5, 100)
	if got := FindOpponent(&e, nil, 0.10); got != -1 {
		t.Errorf("expected -1 for empty candidate list, got %d", got)
	}
}
