package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifeshare/internal/auth"
	"lifeshare/internal/cache"
	"lifeshare/internal/db"
	"lifeshare/internal/directory"
	"lifeshare/internal/seed"
	"lifeshare/internal/server"
	"lifeshare/internal/storage"
	"lifeshare/internal/store"
	"lifeshare/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "memory",
			Usage:   "Run with in-process storage and auth, no AWS or Postgres",
			EnvVars: []string{"LIFESHARE_MEMORY"},
		},
		&cli.BoolFlag{
			Name:  "demo",
			Usage: "Load the demo donors (memory mode only)",
		},
	},
	Action: serve,
}

// backends are the collaborators the server is assembled from.
type backends struct {
	users    directory.UserStore
	config   directory.ConfigStore
	blobs    directory.BlobStore
	auth     server.Authenticator
	verifier server.SessionVerifier
	uploads  server.ObjectReader
	close    func()
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	memory := cCtx.Bool("memory")

	config, err := loadConfig(memory)
	if err != nil {
		return err
	}
	if !config.IsProduction() {
		logger.SetLevel(logrus.DebugLevel)
	}

	var b *backends
	if memory {
		b, err = memoryBackends(ctx, logger, cCtx.Bool("demo"))
	} else {
		if err := validateServeConfig(config); err != nil {
			return err
		}
		b, err = awsBackends(ctx, logger, config)
	}
	if err != nil {
		return err
	}
	defer b.close()

	dir := directory.New(b.users, b.config, b.blobs, logger)

	srv, err := server.New(config, logger, dir, b.auth, b.verifier, b.uploads)
	if err != nil {
		return err
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":   config.ServerPort,
			"memory": memory,
		}).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func memoryBackends(ctx context.Context, logger *logrus.Logger, demo bool) (*backends, error) {
	users := store.NewMemoryStore()
	blobs := storage.NewMemoryStorage("/uploads")
	provider := auth.NewMemoryProvider()

	if demo {
		n, err := seed.SeedDonors(ctx, users, time.Now())
		if err != nil {
			return nil, err
		}
		logger.WithField("donors", n).Info("demo donors loaded")
	}

	logger.Warn("running in memory mode, data is lost on restart and any confirmation code is accepted")

	return &backends{
		users:    users,
		config:   users,
		blobs:    blobs,
		auth:     provider,
		verifier: provider,
		uploads:  blobs,
		close:    func() {},
	}, nil
}

func awsBackends(ctx context.Context, logger *logrus.Logger, config *types.Config) (*backends, error) {
	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)
	s3Client := s3.NewFromConfig(awsConfig)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return nil, err
	}

	closers := []func(){pool.Close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var siteConfig directory.ConfigStore = store.NewSiteConfigRepository(pool)
	if config.RedisURL != "" {
		rdb, err := cache.Connect(ctx, config.RedisURL)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })

		ttl := time.Duration(config.SiteConfigCacheSec) * time.Second
		siteConfig = cache.NewSiteConfigStore(store.NewSiteConfigRepository(pool), cache.New(rdb), ttl)
		logger.WithField("ttl_sec", config.SiteConfigCacheSec).Info("site config cache enabled")
	}

	jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	if err := jwkCache.Register(ctx, auth.JWKSURL(config.CognitoIssuerURL)); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to register cognito jwk with cache: %w", err)
	}

	return &backends{
		users:    store.NewUserRepository(pool),
		config:   siteConfig,
		blobs:    storage.NewS3Storage(s3Client, config.S3BucketName, awsConfig.Region, config.S3PublicBaseURL),
		auth:     auth.NewCognitoProvider(cognitoClient, config.CognitoClientID),
		verifier: auth.NewJWKVerifier(jwkCache, config.CognitoIssuerURL, config.CognitoClientID),
		close:    closeAll,
	}, nil
}
