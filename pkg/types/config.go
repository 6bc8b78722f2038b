package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Profile photos
	S3BucketName       string `envconfig:"S3_BUCKET_NAME" default:"lifeshare-profiles"`
	S3PublicBaseURL    string `envconfig:"S3_PUBLIC_BASE_URL"`
	MaxUploadSizeBytes int64  `envconfig:"MAX_UPLOAD_SIZE_BYTES" default:"5242880"`

	// Site config cache, disabled when empty
	RedisURL           string `envconfig:"REDIS_URL"`
	SiteConfigCacheSec uint   `envconfig:"SITE_CONFIG_CACHE_SEC" default:"300"`

	// Login and register throttling per client IP
	AuthRateLimitPerMin int `envconfig:"AUTH_RATE_LIMIT_PER_MIN" default:"10"`
	AuthRateLimitBurst  int `envconfig:"AUTH_RATE_LIMIT_BURST" default:"5"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
	CookieSecure   bool   `envconfig:"COOKIE_SECURE" default:"true"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
