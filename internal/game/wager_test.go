package game

import "testing"

func TestComputePayoutConservation(t *testing.T) {
	cases := []struct {
		stakeA, stakeB int64
		feeRate        float64
		wantPayout     int64
		wantFee        int64
	}{
		{5, 5, 0.10, 9, 1},
		{100, 100, 0.10, 180, 20},
		{7, 7, 0.10, 12, 2},
		{5, 5, 0, 10, 0},
		{1000, 1000, 0.05, 1900, 100},
	}

	for _, tc := range cases {
		payout, fee := ComputePayout(tc.stakeA, tc.stakeB, tc.feeRate)
		if payout != tc.wantPayout || fee != tc.wantFee {
			t.Errorf("ComputePayout(%d,%d,%.2f) = (%d,%d), want (%d,%d)",
				tc.stakeA, tc.stakeB, tc.feeRate, payout, fee, tc.wantPayout, tc.wantFee)
		}
		if payout+fee != tc.stakeA+tc.stakeB {
			t.Errorf("pot not conserved: payout %d + fee %d != pot %d", payout, fee, tc.stakeA+tc.stakeB)
		}
	}
}

func TestDecideMatchHigherScoreWins(t *testing.T) {
	out := DecideMatch(10, 11, 300, 120, 5, 0.10)
	if out.Draw {
		t.Fatal("unequal scores must not draw")
	}
	if out.WinnerID != 10 {
		t.Errorf("winner = %d, want 10", out.WinnerID)
	}
	if out.Payout != 9 || out.HouseFee != 1 {
		t.Errorf("payout/fee = %d/%d, want 9/1", out.Payout, out.HouseFee)
	}

	out = DecideMatch(10, 11, 120, 300, 5, 0.10)
	if out.WinnerID != 11 {
		t.Errorf("winner = %d, want 11", out.WinnerID)
	}
}

func TestDecideMatchDraw(t *testing.T) {
	out := DecideMatch(10, 11, 200, 200, 5, 0.10)
	if !out.Draw {
		t.Fatal("equal scores must draw")
	}
	if out.WinnerID != 0 || out.Payout != 0 || out.HouseFee != 0 {
		t.Errorf("draw must carry no winner, payout, or fee: %+v", out)
	}
}

func TestComputePayoutFeeAbsorbsRounding(t *testing.T) {
	// Odd pots: the floored payout leaves the remainder to the house, never
	// minting or destroying a coin.
	for pot := int64(1); pot < 200; pot++ {
		payout, fee := ComputePayout(pot, 0, 0.10)
		if payout+fee != pot {
			t.Fatalf("pot=%d: payout %d + fee %d != pot", pot, payout, fee)
		}
		if fee < 0 || payout < 0 {
			t.Fatalf("pot=%d: negative split payout=%d fee=%d", pot, payout, fee)
		}
	}
}
