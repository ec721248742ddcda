package config

import "testing"

func TestPolicyDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ProximityWindow != 5 {
		t.Errorf("ProximityWindow %d, want 5", cfg.ProximityWindow)
	}
	if !cfg.TopRankExempt {
		t.Error("TopRankExempt false, want true")
	}
	if cfg.ResponseDeadlineDays != 14 {
		t.Errorf("ResponseDeadlineDays %d, want 14", cfg.ResponseDeadlineDays)
	}
	if cfg.LossCooldownHours != 24 {
		t.Errorf("LossCooldownHours %d, want 24", cfg.LossCooldownHours)
	}
	if cfg.ForfeitWinner != "challenger" {
		t.Errorf("ForfeitWinner %s, want challenger", cfg.ForfeitWinner)
	}
	if cfg.SweepIntervalMinutes != 5 {
		t.Errorf("SweepIntervalMinutes %d, want 5", cfg.SweepIntervalMinutes)
	}
	if cfg.SerializableRetries != 3 {
		t.Errorf("SerializableRetries %d, want 3", cfg.SerializableRetries)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROXIMITY_WINDOW", "3")
	t.Setenv("TOP_RANK_EXEMPT", "false")
	t.Setenv("RESPONSE_DEADLINE_DAYS", "7")
	t.Setenv("FORFEIT_WINNER", "non_responder")

	cfg := Load()

	if cfg.ProximityWindow != 3 {
		t.Errorf("ProximityWindow %d, want 3", cfg.ProximityWindow)
	}
	if cfg.TopRankExempt {
		t.Error("TopRankExempt true, want false")
	}
	if cfg.ResponseDeadlineDays != 7 {
		t.Errorf("ResponseDeadlineDays %d, want 7", cfg.ResponseDeadlineDays)
	}
	if cfg.ForfeitWinner != "non_responder" {
		t.Errorf("ForfeitWinner %s, want non_responder", cfg.ForfeitWinner)
	}
}

func TestMalformedEnvFallsBack(t *testing.T) {
	t.Setenv("PROXIMITY_WINDOW", "lots")
	t.Setenv("TOP_RANK_EXEMPT", "kinda")

	cfg := Load()

	if cfg.ProximityWindow != 5 {
		t.Errorf("ProximityWindow %d, want default 5", cfg.ProximityWindow)
	}
	if !cfg.TopRankExempt {
		t.Error("TopRankExempt false, want default true")
	}
}
