package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	// VoteWindow is the shared-mode vote collection window. The observed
	// production default is tight (~80ms); it is a tunable, not a constant.
	VoteWindow   time.Duration
	TickInterval time.Duration

	// ReconnectGrace is how long a disconnected session stays resolvable.
	ReconnectGrace time.Duration
	// EmptyRoomTTL is how long a room with nobody online survives.
	EmptyRoomTTL time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:           getenv("ADDR", ":8080"),
		VoteWindow:     getenvMS("VOTE_WINDOW_MS", 80),
		TickInterval:   getenvMS("TICK_INTERVAL_MS", 150),
		ReconnectGrace: getenvMS("RECONNECT_GRACE_MS", 30_000),
		EmptyRoomTTL:   getenvMS("EMPTY_ROOM_TTL_MS", 10_000),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvMS(key string, def int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Millisecond
		}
	}
	return time.Duration(def) * time.Millisecond
}
