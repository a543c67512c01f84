package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Run / anti-cheat settings
	BaseTrackLength      int
	MaxCoinsPerMeter     float64
	OvershootTolerance   float64
	MinTimeBuffer        float64
	BaseRunSpeed         float64
	MaxSpeedMultiplier   float64
	ArmyBaseCapacity     int
	ArmyPerCapacityLevel int

	// Economy settings
	RewardBase      int64
	ArmyBonusPerMan int64
	KillBonus       int64
	TimeBonusPerSec int64
	ParTimeSeconds  float64
	IncomeRate      float64

	// Matchmaking settings
	QueueExpiryMinutes    int
	MatchmakerPollSeconds int
	PowerTolerance        float64
	HouseFeeRate          float64
	MinStakeAmount        int64

	// Missions
	GemExchangeRate int64

	// Rate limiting
	QueueJoinRateLimitSeconds int

	// Security
	IdentitySecret    string
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/coinrun?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Run / anti-cheat
		BaseTrackLength:      getEnvInt("BASE_TRACK_LENGTH", 800),
		MaxCoinsPerMeter:     getEnvFloat("MAX_COINS_PER_METER", 0.5),
		OvershootTolerance:   getEnvFloat("OVERSHOOT_TOLERANCE", 0.10),
		MinTimeBuffer:        getEnvFloat("MIN_TIME_BUFFER", 0.20),
		BaseRunSpeed:         getEnvFloat("BASE_RUN_SPEED", 50),
		MaxSpeedMultiplier:   getEnvFloat("MAX_SPEED_MULTIPLIER", 3),
		ArmyBaseCapacity:     getEnvInt("ARMY_BASE_CAPACITY", 30),
		ArmyPerCapacityLevel: getEnvInt("ARMY_PER_CAPACITY_LEVEL", 5),

		// Economy
		RewardBase:      getEnvInt64("REWARD_BASE", 50),
		ArmyBonusPerMan: getEnvInt64("ARMY_BONUS_PER_MAN", 2),
		KillBonus:       getEnvInt64("KILL_BONUS", 3),
		TimeBonusPerSec: getEnvInt64("TIME_BONUS_PER_SEC", 5),
		ParTimeSeconds:  getEnvFloat("PAR_TIME_SECONDS", 60),
		IncomeRate:      getEnvFloat("INCOME_RATE", 0.05),

		// Matchmaking
		QueueExpiryMinutes:    getEnvInt("QUEUE_EXPIRY_MINUTES", 10),
		MatchmakerPollSeconds: getEnvInt("MATCHMAKER_POLL_SECONDS", 3),
		PowerTolerance:        getEnvFloat("POWER_TOLERANCE", 0.10),
		HouseFeeRate:          getEnvFloat("HOUSE_FEE_RATE", 0.10),
		MinStakeAmount:        getEnvInt64("MIN_STAKE_AMOUNT", 5),

		// Shop
		GemExchangeRate: getEnvInt64("GEM_EXCHANGE_RATE", 100),

		// Rate limiting
		QueueJoinRateLimitSeconds: getEnvInt("QUEUE_JOIN_RATE_LIMIT_SECONDS", 5),

		// Security
		IdentitySecret:    getEnv("IDENTITY_SECRET", "change-me-identity"),
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
