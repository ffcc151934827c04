package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	AppURL     string // Public base URL of the application
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	InternalSecret string // Shared secret for internal endpoints (cron, email, nostr)

	LNDRestURL       string // LND node REST base URL
	LNDAdminMacaroon string // Hex-encoded admin macaroon for the LND REST API

	CoinMarketCapKey string // CoinMarketCap API key for price lookups
	GoogleMapsKey    string // Google Maps API key for travel times

	ResendAPIKey string // Resend API key for transactional email
	EmailFrom    string // From address for transactional email
	AdminEmail   string // Recipient for the daily summary email

	NostrPrivateKey string // Hex-encoded Nostr private key for relay publishing
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    os.Getenv("APP_PORT"),          // Application port
		AppURL:     os.Getenv("APP_URL"),           // Public base URL
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     os.Getenv("DB_HOST"),           // Database host
		DBPort:     os.Getenv("DB_PORT"),           // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment

		InternalSecret: os.Getenv("INTERNAL_API_SECRET"), // Internal endpoint secret

		LNDRestURL:       os.Getenv("LND_REST_URL"),       // LND REST base URL
		LNDAdminMacaroon: os.Getenv("LND_ADMIN_MACAROON"), // LND admin macaroon

		CoinMarketCapKey: os.Getenv("COINMARKETCAP_API_KEY"), // CoinMarketCap key
		GoogleMapsKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),   // Google Maps key

		ResendAPIKey: os.Getenv("RESEND_API_KEY"), // Resend API key
		EmailFrom:    os.Getenv("EMAIL_FROM"),     // From address
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),    // Daily summary recipient

		NostrPrivateKey: os.Getenv("NOSTR_PRIVATE_KEY"), // Nostr private key
	}
}
