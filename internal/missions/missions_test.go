package missions

import (
	"testing"
	"time"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
)

func TestPeriodKeyDaily(t *testing.T) {
	at := time.Date(2025, 3, 7, 23, 59, 0, 0, time.UTC)
	if got := PeriodKey(models.CadenceDaily, at); got != "2025-03-07" {
		t.Errorf("daily key = %q, want 2025-03-07", got)
	}
}

func TestPeriodKeyWeeklyISO(t *testing.T) {
	// 2025-01-01 is a Wednesday in ISO week 1 of 2025.
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := PeriodKey(models.CadenceWeekly, at); got != "2025-W01" {
		t.Errorf("weekly key = %q, want 2025-W01", got)
	}

	// 2023-01-01 is a Sunday that ISO assigns to week 52 of 2022.
	at = time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := PeriodKey(models.CadenceWeekly, at); got != "2022-W52" {
		t.Errorf("weekly key = %q, want 2022-W52", got)
	}
}

func TestPeriodKeyRollsAtMidnightUTC(t *testing.T) {
	before := time.Date(2025, 6, 10, 23, 59, 59, 0, time.UTC)
	after := before.Add(time.Second)
	if PeriodKey(models.CadenceDaily, before) == PeriodKey(models.CadenceDaily, after) {
		t.Error("daily period key should change at midnight UTC")
	}
}

func TestMetricDelta(t *testing.T) {
	ev := ProgressEvent{
		UserID:           1,
		GamesPlayed:      1,
		CoinsCollected:   120,
		MaxArmy:          25,
		DidFinish:        true,
		DistanceTraveled: 800.7,
		EnemiesKilled:    10,
	}

	cases := []struct {
		metric string
		want   int64
	}{
		{models.MetricGamesPlayed, 1},
		{models.MetricGamesWon, 1},
		{models.MetricCoins, 120},
		{models.MetricDistance, 800},
		{models.MetricMaxArmy, 25},
		{models.MetricKills, 10},
		{"unknown_metric", 0},
	}
	for _, tc := range cases {
		if got := MetricDelta(tc.metric, ev); got != tc.want {
			t.Errorf("MetricDelta(%s) = %d, want %d", tc.metric, got, tc.want)
		}
	}
}

func TestMetricDeltaUnfinishedRunIsNotAWin(t *testing.T) {
	ev := ProgressEvent{GamesPlayed: 1, DidFinish: false}
	if got := MetricDelta(models.MetricGamesWon, ev); got != 0 {
		t.Errorf("unfinished run counted as win: %d", got)
	}
	if got := MetricDelta(models.MetricGamesPlayed, ev); got != 1 {
		t.Errorf("unfinished run should still count as played: %d", got)
	}
}

func TestHighWaterMetric(t *testing.T) {
	if !IsHighWaterMetric(models.MetricMaxArmy) {
		t.Error("max_army should be high-water")
	}
	if IsHighWaterMetric(models.MetricCoins) {
		t.Error("coins should be additive")
	}
}
