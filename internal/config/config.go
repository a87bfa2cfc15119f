package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration, read from the environment
type Config struct {
	MongoURI  string
	RedisAddr string
	HTTPPort  string

	JWTSecret    string
	HostUsername string
	HostPassword string

	// Quiz tunables
	MaxTrackSeconds int // wall-clock cap for a single round
	RoundGapSeconds int // pause between a resolved round and the next one

	// Media extraction binaries
	FFmpegBin  string
	FFprobeBin string
}

// Load reads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnv("HTTP_PORT", "8080"),

		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		HostUsername: getEnv("HOST_USERNAME", "admin"),
		HostPassword: getEnv("HOST_PASSWORD", "password123"),

		MaxTrackSeconds: getEnvInt("MAX_TRACK_SECONDS", 30),
		RoundGapSeconds: getEnvInt("ROUND_GAP_SECONDS", 4),

		FFmpegBin:  getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin: getEnv("FFPROBE_BIN", "ffprobe"),
	}
}

// MaxTrackDuration returns the per-round wall-clock cap
func (c *Config) MaxTrackDuration() time.Duration {
	return time.Duration(c.MaxTrackSeconds) * time.Second
}

// RoundGap returns the delay between rounds
func (c *Config) RoundGap() time.Duration {
	return time.Duration(c.RoundGapSeconds) * time.Second
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
