// Package config loads the engine's read-only configuration, following the
// teacher's flat getenv-with-default style (see cmd/server/main.go in the
// teacher repo) generalized to the full surface spec.md §6 names.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the read-only configuration surface from spec.md §6.
type Config struct {
	DeckSize    int
	TableSize   int
	FeatureSize int // SET_SIZE: cards per submission

	TurnTimeoutMillis   int
	TableDelayMillis    int
	PointFreezeMillis   int
	PenaltyFreezeMillis int
	AISleepMillis       int

	PlayerNames  []string
	HumanPlayers []bool // parallel to PlayerNames

	Hints bool

	WSAddr string
}

// Load reads Config from the environment, falling back to the defaults
// from spec.md's end-to-end scenarios.
func Load() Config {
	names := getenvList("SET_PLAYER_NAMES", []string{"Human", "Bot 1", "Bot 2", "Bot 3"})
	humans := getenvBoolList("SET_HUMAN_PLAYERS", defaultHumanFlags(len(names)))

	return Config{
		DeckSize:    getenvInt("SET_DECK_SIZE", 81),
		TableSize:   getenvInt("SET_TABLE_SIZE", 12),
		FeatureSize: getenvInt("SET_FEATURE_SIZE", 3),

		TurnTimeoutMillis:   getenvInt("SET_TURN_TIMEOUT_MS", 60000),
		TableDelayMillis:    getenvInt("SET_TABLE_DELAY_MS", 100),
		PointFreezeMillis:   getenvInt("SET_POINT_FREEZE_MS", 1000),
		PenaltyFreezeMillis: getenvInt("SET_PENALTY_FREEZE_MS", 3000),
		AISleepMillis:       getenvInt("SET_AI_SLEEP_MS", 1000),

		PlayerNames:  names,
		HumanPlayers: humans,

		Hints: getenvBool("SET_HINTS", false),

		WSAddr: getenv("SET_WS_ADDR", ":8080"),
	}
}

// Validate rejects a configuration the engine cannot run with.
func (c Config) Validate() error {
	if c.DeckSize <= 0 {
		return fmt.Errorf("config: deckSize must be positive, got %d", c.DeckSize)
	}
	if c.TableSize <= 0 || c.TableSize > c.DeckSize {
		return fmt.Errorf("config: tableSize must be in (0, deckSize], got %d", c.TableSize)
	}
	if c.FeatureSize <= 0 {
		return fmt.Errorf("config: featureSize must be positive, got %d", c.FeatureSize)
	}
	if len(c.PlayerNames) == 0 {
		return fmt.Errorf("config: at least one player is required")
	}
	return nil
}

func defaultHumanFlags(n int) []bool {
	flags := make([]bool, n)
	if n > 0 {
		flags[0] = true
	}
	return flags
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getenvBoolList(key string, def []bool) []bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]bool, 0, len(parts))
	for _, p := range parts {
		b, err := strconv.ParseBool(strings.TrimSpace(p))
		if err != nil {
			return def
		}
		out = append(out, b)
	}
	return out
}
