package util

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAccessTTL  = 1 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour

	defaultRotateEveryN = 10

	defaultCodeTTL       = 15 * time.Minute
	defaultCodeCooldown  = 60 * time.Second
	defaultCodeRetention = 7 * 24 * time.Hour
	defaultSweepInterval = 1 * time.Hour

	defaultPinMaxAttempts   = 5
	defaultPinLockout       = 30 * time.Minute
	defaultPinMinLength     = 4
	defaultPinBcryptCost    = 10
	defaultRefreshBufferDur = 5 * time.Minute

	RefreshTokenBytes = 32
	JWTLeeWay         = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

type TokenConfig struct {
	JwtSecretKey []byte
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	RotateEveryN int
}

func NewTokenConfig() *TokenConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	return &TokenConfig{
		JwtSecretKey: []byte(secret),
		AccessTTL:    parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL:   parseDurationOrDefault("REFRESH_TOKEN_TTL", defaultRefreshTTL),
		RotateEveryN: parseIntOrDefault("REFRESH_ROTATE_EVERY_N", defaultRotateEveryN),
	}
}

type VerificationConfig struct {
	CodeTTL       time.Duration
	Cooldown      time.Duration
	Retention     time.Duration
	SweepInterval time.Duration
}

func NewVerificationConfig() *VerificationConfig {
	return &VerificationConfig{
		CodeTTL:       parseDurationOrDefault("VERIFICATION_CODE_TTL", defaultCodeTTL),
		Cooldown:      parseDurationOrDefault("VERIFICATION_COOLDOWN", defaultCodeCooldown),
		Retention:     parseDurationOrDefault("VERIFICATION_RETENTION", defaultCodeRetention),
		SweepInterval: parseDurationOrDefault("VERIFICATION_SWEEP_INTERVAL", defaultSweepInterval),
	}
}

type PinConfig struct {
	MaxAttempts     int
	LockoutDuration time.Duration
	MinLength       int
	BcryptCost      int
}

func NewPinConfig() *PinConfig {
	return &PinConfig{
		MaxAttempts:     parseIntOrDefault("PIN_MAX_ATTEMPTS", defaultPinMaxAttempts),
		LockoutDuration: parseDurationOrDefault("PIN_LOCKOUT_DURATION", defaultPinLockout),
		MinLength:       parseIntOrDefault("PIN_MIN_LENGTH", defaultPinMinLength),
		BcryptCost:      parseIntOrDefault("PIN_BCRYPT_COST", defaultPinBcryptCost),
	}
}

type SessionManagerConfig struct {
	RefreshBuffer time.Duration
	StorePath     string
}

func NewSessionManagerConfig() *SessionManagerConfig {
	path := os.Getenv("SESSION_STORE_PATH")
	if path == "" {
		path = ".gidipin_session.json"
	}
	return &SessionManagerConfig{
		RefreshBuffer: parseDurationOrDefault("SESSION_REFRESH_BUFFER", defaultRefreshBufferDur),
		StorePath:     path,
	}
}

func GetDeliveryURL() string {
	return os.Getenv("DELIVERY_URL")
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}

func parseIntOrDefault(varName string, def int) int {
	if v := os.Getenv(varName); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid integer in %s: %s, using default %d", varName, v, def)
	}
	return def
}
