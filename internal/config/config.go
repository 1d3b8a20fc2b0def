// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/impostor/internal/room"
	"github.com/sirupsen/logrus"
)

// Config is everything the server and the historian read from the environment.
// A .env file in the working directory is loaded by the binaries through godotenv/autoload.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	WordsFile string

	Game room.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	HistoryQueue  string

	DatabaseURL string

	AdminTokenSecret string
	AdminTokenTTL    time.Duration

	// Per-connection inbound message rate.
	RateLimit float64
	RateBurst int

	SweepInterval time.Duration

	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
	GameInactivity      time.Duration
}

// Load reads the configuration. Malformed values fall back to their defaults with a warning.
func Load(log logrus.FieldLogger) Config {
	e := env{log: log}
	game := room.DefaultConfig()

	game.MaxPlayers = e.getEnvInt("MAX_PLAYERS", game.MaxPlayers)
	game.MinPlayers = e.getEnvInt("MIN_PLAYERS", game.MinPlayers)
	game.MaxTextLength = e.getEnvInt("MAX_TEXT_LENGTH", game.MaxTextLength)
	game.RequireLeaderToStart = e.getEnvBool("REQUIRE_LEADER_TO_START", game.RequireLeaderToStart)
	game.ReshuffleAfterVote = e.getEnvBool("RESHUFFLE_AFTER_VOTE", game.ReshuffleAfterVote)
	game.TurnTimeout = e.getEnvDuration("TURN_TIMEOUT", game.TurnTimeout)
	game.DecisionTimeout = e.getEnvDuration("DECISION_TIMEOUT", game.DecisionTimeout)
	game.VoteTimeout = e.getEnvDuration("VOTE_TIMEOUT", game.VoteTimeout)
	game.RoundStartDelay = e.getEnvDuration("ROUND_START_DELAY", game.RoundStartDelay)
	game.TurnGap = e.getEnvDuration("TURN_GAP", game.TurnGap)
	game.ResolveGrace = e.getEnvDuration("RESOLVE_GRACE", game.ResolveGrace)
	game.DecisionResultDelay = e.getEnvDuration("DECISION_RESULT_DELAY", game.DecisionResultDelay)
	game.VoteResultDelay = e.getEnvDuration("VOTE_RESULT_DELAY", game.VoteResultDelay)
	game.RoomIdleTTL = e.getEnvDuration("ROOM_IDLE_TTL", game.RoomIdleTTL)
	game.FinishedRoomTTL = e.getEnvDuration("FINISHED_ROOM_TTL", game.FinishedRoomTTL)

	if game.MaxTextLength <= 0 {
		def := room.DefaultConfig().MaxTextLength
		log.Warnf("MAX_TEXT_LENGTH=%d must be positive, using %d", game.MaxTextLength, def)
		game.MaxTextLength = def
	}
	if game.MinPlayers < 2 {
		log.Warnf("MIN_PLAYERS=%d is below 2, using 2", game.MinPlayers)
		game.MinPlayers = 2
	}
	if game.MaxPlayers < game.MinPlayers {
		log.Warnf("MAX_PLAYERS=%d is below MIN_PLAYERS, using %d", game.MaxPlayers, game.MinPlayers)
		game.MaxPlayers = game.MinPlayers
	}

	return Config{
		Port:      e.getEnv("PORT", "3000"),
		LogLevel:  e.getEnv("LOG_LEVEL", "info"),
		LogFormat: e.getEnv("LOG_FORMAT", "text"),
		WordsFile: e.getEnv("WORDS_FILE", ""),

		Game: game,

		RedisAddr:     e.getEnv("REDIS_ADDR", ""),
		RedisPassword: e.getEnv("REDIS_PASSWORD", ""),
		RedisDB:       e.getEnvInt("REDIS_DB", 0),
		HistoryQueue:  e.getEnv("HISTORY_QUEUE", "impostor_actions"),

		DatabaseURL: databaseURL(),

		AdminTokenSecret: e.getEnv("ADMIN_TOKEN_SECRET", ""),
		AdminTokenTTL:    e.getEnvDuration("ADMIN_TOKEN_TTL", 24*time.Hour),

		RateLimit: e.getEnvFloat("WS_RATE_LIMIT", 10),
		RateBurst: e.getEnvInt("WS_RATE_BURST", 20),

		SweepInterval: e.getEnvDuration("SWEEP_INTERVAL", time.Minute),

		HistorianBatchSize:  e.getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlushDelay: time.Duration(e.getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		GameInactivity:      e.getEnvDuration("GAME_INACTIVITY_TIMEOUT", 10*time.Minute),
	}
}

// Level parses c.LogLevel, defaulting to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Formatter returns the logrus formatter named by LOG_FORMAT ("text" or "json").
func (c Config) Formatter() logrus.Formatter {
	if c.LogFormat == "json" {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}

// databaseURL prefers DATABASE_URL and otherwise builds one from the PG_* variables.
// An empty result means no database is configured.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("PG_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("PG_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		port,
		os.Getenv("PG_DATABASE"),
	)
}

// env reads typed values, warning when a set value cannot be parsed.
type env struct {
	log logrus.FieldLogger
}

func (e env) getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func (e env) getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		e.log.Warnf("invalid %s=%q, using %d", key, s, def)
		return def
	}
	return v
}

func (e env) getEnvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		e.log.Warnf("invalid %s=%q, using %v", key, s, def)
		return def
	}
	return v
}

func (e env) getEnvBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		e.log.Warnf("invalid %s=%q, using %t", key, s, def)
		return def
	}
	return v
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func (e env) getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		e.log.Warnf("invalid %s=%q, using %s", key, s, def)
		return def
	}
	return d
}
