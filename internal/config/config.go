package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath      string
	JWTPublicKeyPath       string
	JWTExpiry              time.Duration
	RefreshTokenExpiryDays int

	SNSRegion        string
	SMSSenderID      string
	SMSDevFallback   bool // explicit opt-in; only honoured when AppEnv is "development"
	PhoneCountryCode string

	GoogleClientID string

	OTPMaxAttempts int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users      string
	OTPs       string
	Sessions   string
	Activities string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:      getEnv("DYNAMO_TABLE_USERS", "users"),
			OTPs:       getEnv("DYNAMO_TABLE_OTPS", "otps"),
			Sessions:   getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Activities: getEnv("DYNAMO_TABLE_ACTIVITIES", "activities"),
		},

		JWTPrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:              time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenExpiryDays: getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),

		SNSRegion:        getEnv("SNS_REGION", "us-east-1"),
		SMSSenderID:      getEnv("SMS_SENDER_ID", "OCCAMY"),
		SMSDevFallback:   getEnvBool("SMS_DEV_FALLBACK", false),
		PhoneCountryCode: getEnv("PHONE_COUNTRY_CODE", "+91"),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		OTPMaxAttempts: getEnvInt("OTP_MAX_ATTEMPTS", 5),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// DevMode reports whether the local delivery fallback may be used. Both the
// explicit flag and a development environment are required, so the fallback
// is never reachable in a production deployment.
func (c *Config) DevMode() bool {
	return c.SMSDevFallback && c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
