package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	LogPretty               bool
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	DBMaxOpenConns          int
	DBMaxIdleConns          int
	TxTimeout               time.Duration
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogPretty:               getEnvBool("LOG_PRETTY", false),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		DBMaxOpenConns:          getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:          getEnvInt("DB_MAX_IDLE_CONNS", 5),
		TxTimeout:               time.Duration(getEnvInt("TX_TIMEOUT_SECONDS", 5)) * time.Second,
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
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
