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

	DynamoTables DynamoTables
	S3BucketName string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string

	// CredentialScheme selects how account secrets are stored and compared:
	// "plain" (legacy, byte-for-byte) or "bcrypt".
	CredentialScheme string

	// OTPChannel selects the notification channel for login codes:
	// "email" (SMTP) or "sms" (SNS).
	OTPChannel string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion   string
	SNSTopicARN string

	// SessionSlotBackend selects where the per-client session slot lives:
	// "redis" or "file".
	SessionSlotBackend string
	SessionFileDir     string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// FlowTTL is how long an abandoned login flow instance is kept before its
	// in-memory state (OTP code included) is discarded.
	FlowTTL time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts   string
	Properties string
	Activity   string
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
			Accounts:   getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Properties: getEnv("DYNAMO_TABLE_PROPERTIES", "properties"),
			Activity:   getEnv("DYNAMO_TABLE_ACTIVITY", "user_activity"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "rentx-media"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		CredentialScheme: getEnv("CREDENTIAL_SCHEME", "plain"),
		OTPChannel:       getEnv("OTP_CHANNEL", "email"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@rentx.example"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		SessionSlotBackend: getEnv("SESSION_SLOT_BACKEND", "redis"),
		SessionFileDir:     getEnv("SESSION_FILE_DIR", "./sessions"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),

		FlowTTL: time.Duration(getEnvInt("FLOW_TTL_MINUTES", 30)) * time.Minute,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
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
