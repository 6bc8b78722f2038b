package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"lifeshare/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/gorilla/securecookie"
	"github.com/kelseyhightower/envconfig"
)

// loadConfig reads the environment. Memory mode needs no database and makes
// up cookie keys when none are set.
func loadConfig(memory bool) (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	if memory {
		if c.CookieHashKey == "" {
			c.CookieHashKey = base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
		}
		if c.CookieBlockKey == "" {
			c.CookieBlockKey = base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
		}
		return c, nil
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	return c, nil
}

// validateServeConfig checks what `serve` needs beyond the database.
func validateServeConfig(c *types.Config) error {
	if err := validateKey("COOKIE_HASH_KEY", c.CookieHashKey, 32, 64); err != nil {
		return err
	}
	if err := validateKey("COOKIE_BLOCK_KEY", c.CookieBlockKey, 16, 24, 32); err != nil {
		return err
	}

	if c.CognitoClientID == "" || c.CognitoIssuerURL == "" {
		return fmt.Errorf("set COGNITO_CLIENT_ID and COGNITO_ISSUER_URL")
	}

	if c.S3BucketName == "" {
		return fmt.Errorf("set S3_BUCKET_NAME")
	}

	return nil
}

func validateKey(name, value string, sizes ...int) error {
	if value == "" {
		return fmt.Errorf("set %s", name)
	}

	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%s is not valid base64: %w", name, err)
	}

	for _, size := range sizes {
		if len(key) == size {
			return nil
		}
	}
	return fmt.Errorf("%s must decode to one of %v bytes, got %d", name, sizes, len(key))
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}
