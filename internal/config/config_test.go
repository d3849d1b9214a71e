package config

import (
	"os"
	"testing"
)

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	for k, v := range kv {
		old, had := os.LookupEnv(k)
		os.Setenv(k, v)
		defer func(k string, old string, had bool) {
			if had {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		}(k, old, had)
	}
	fn()
}

func TestLoadDefaults(t *testing.T) {
	withEnv(t, map[string]string{
		"SET_DECK_SIZE": "", "SET_TABLE_SIZE": "", "SET_FEATURE_SIZE": "",
	}, func() {
		cfg := Load()
		if cfg.DeckSize != 81 {
			t.Errorf("DeckSize = %d, want 81", cfg.DeckSize)
		}
		if cfg.TableSize != 12 {
			t.Errorf("TableSize = %d, want 12", cfg.TableSize)
		}
		if cfg.FeatureSize != 3 {
			t.Errorf("FeatureSize = %d, want 3", cfg.FeatureSize)
		}
		if len(cfg.PlayerNames) != 4 || cfg.PlayerNames[0] != "Human" {
			t.Errorf("PlayerNames = %v, want default 4-player roster", cfg.PlayerNames)
		}
		if !cfg.HumanPlayers[0] || cfg.HumanPlayers[1] {
			t.Errorf("HumanPlayers = %v, want only seat 0 human by default", cfg.HumanPlayers)
		}
	})
}

func TestLoadReadsOverrides(t *testing.T) {
	withEnv(t, map[string]string{
		"SET_DECK_SIZE":      "9",
		"SET_TABLE_SIZE":     "9",
		"SET_PLAYER_NAMES":   "Alice,Bob",
		"SET_HUMAN_PLAYERS":  "true,false",
		"SET_HINTS":          "true",
	}, func() {
		cfg := Load()
		if cfg.DeckSize != 9 || cfg.TableSize != 9 {
			t.Fatalf("got DeckSize=%d TableSize=%d, want 9/9", cfg.DeckSize, cfg.TableSize)
		}
		if len(cfg.PlayerNames) != 2 || cfg.PlayerNames[1] != "Bob" {
			t.Fatalf("PlayerNames = %v, want [Alice Bob]", cfg.PlayerNames)
		}
		if !cfg.HumanPlayers[0] || cfg.HumanPlayers[1] {
			t.Fatalf("HumanPlayers = %v, want [true false]", cfg.HumanPlayers)
		}
		if !cfg.Hints {
			t.Fatal("expected Hints=true")
		}
	})
}

func TestValidateRejectsBadSizes(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero deck", Config{DeckSize: 0, TableSize: 1, FeatureSize: 1, PlayerNames: []string{"a"}}},
		{"table bigger than deck", Config{DeckSize: 5, TableSize: 6, FeatureSize: 1, PlayerNames: []string{"a"}}},
		{"zero feature size", Config{DeckSize: 5, TableSize: 5, FeatureSize: 0, PlayerNames: []string{"a"}}},
		{"no players", Config{DeckSize: 5, TableSize: 5, FeatureSize: 1, PlayerNames: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Errorf("Validate() = nil, want an error")
			}
		})
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := Config{DeckSize: 9, TableSize: 9, FeatureSize: 3, PlayerNames: []string{"a", "b"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}
