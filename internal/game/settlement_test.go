package game

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRejectedSettlementCarriesNoReward(t *testing.T) {
	res := SettlementResult{
		Accepted:        false,
		RejectionReason: "distance exceeds track length",
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)

	for _, field := range []string{"\"reward\"", "\"new_balance\"", "\"final_score\""} {
		if strings.Contains(body, field) {
			t.Errorf("rejected settlement must not serialize %s: %s", field, body)
		}
	}
	if !strings.Contains(body, "\"rejection_reason\"") {
		t.Errorf("rejected settlement must carry the reason: %s", body)
	}
}

func TestAcceptedSettlementCarriesReward(t *testing.T) {
	res := SettlementResult{
		Accepted:   true,
		Reward:     630,
		NewBalance: 1630,
		FinalScore: 5000,
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)

	for _, want := range []string{"\"reward\":630", "\"new_balance\":1630", "\"final_score\":5000"} {
		if !strings.Contains(body, want) {
			t.Errorf("accepted settlement missing %s: %s", want, body)
		}
	}
	if strings.Contains(body, "rejection_reason") {
		t.Errorf("accepted settlement must not carry a rejection reason: %s", body)
	}
}
