package ledger

import (
	"testing"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
)

func entry(id int, currency string, amount, before, after int64) models.LedgerEntry {
	return models.LedgerEntry{
		ID:            id,
		UserID:        1,
		Category:      models.LedgerGameReward,
		Currency:      currency,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
	}
}

func TestReconstructReplaysBalance(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(1, models.CurrencyCoins, 630, 0, 630),
		entry(2, models.CurrencyCoins, -150, 630, 480),
		entry(3, models.CurrencyGems, 10, 0, 10),
		entry(4, models.CurrencyCoins, 200, 480, 680),
	}

	balances, err := Reconstruct(entries)
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if balances[models.CurrencyCoins] != 680 {
		t.Errorf("coins = %d, want 680", balances[models.CurrencyCoins])
	}
	if balances[models.CurrencyGems] != 10 {
		t.Errorf("gems = %d, want 10", balances[models.CurrencyGems])
	}
}

func TestReconstructDetectsBrokenArithmetic(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(1, models.CurrencyCoins, 100, 0, 99),
	}
	if _, err := Reconstruct(entries); err == nil {
		t.Error("expected error for balance_after != balance_before + amount")
	}
}

func TestReconstructDetectsBrokenChain(t *testing.T) {
	// Second entry claims a balance_before that doesn't follow from the first.
	entries := []models.LedgerEntry{
		entry(1, models.CurrencyCoins, 100, 0, 100),
		entry(2, models.CurrencyCoins, 50, 90, 140),
	}
	if _, err := Reconstruct(entries); err == nil {
		t.Error("expected error for non-chaining balance_before")
	}
}

func TestReconstructEmpty(t *testing.T) {
	balances, err := Reconstruct(nil)
	if err != nil {
		t.Fatalf("Reconstruct(nil) failed: %v", err)
	}
	if len(balances) != 0 {
		t.Errorf("expected no balances, got %v", balances)
	}
}
