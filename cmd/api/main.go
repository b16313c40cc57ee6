package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"gymstay/backend/internal/config"
	"gymstay/backend/internal/database"
	"gymstay/backend/internal/domain/accesstoken"
	"gymstay/backend/internal/domain/booking"
	"gymstay/backend/internal/domain/gym"
	"gymstay/backend/internal/domain/notifications"
	"gymstay/backend/internal/domain/payments"
	"gymstay/backend/internal/firebase"
	apihttp "gymstay/backend/internal/http"
	"gymstay/backend/internal/logging"
	"gymstay/backend/internal/middleware"
	"gymstay/backend/internal/mq"
	"gymstay/backend/migrations"
)

type stores struct {
	bookings booking.Store
	catalog  gym.Catalog
	tokens   accesstoken.Store
	close    func()
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})

	// Firebase is needed for operator auth and for the firestore driver.
	var authClient *auth.Client
	var fs *firebase.Firestore
	if cfg.ProjectID != "" {
		app, err := firebase.NewApp(ctx, cfg)
		if err != nil {
			log.Fatalf("firebase app init failed: %v", err)
		}
		if authClient, err = firebase.NewAuthClient(ctx, app); err != nil {
			log.Fatalf("firebase auth client init failed: %v", err)
		}
		if cfg.StoreDriver == "firestore" {
			if fs, err = firebase.NewFirestore(ctx, app); err != nil {
				log.Fatalf("firestore init failed: %v", err)
			}
			defer fs.Close()
		}
	} else {
		log.Warn("FIREBASE_PROJECT_ID not set, operator routes disabled")
	}

	st, err := openStores(ctx, cfg, fs, log)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer st.close()

	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, payment endpoints will return 503")
	}
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)

	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, emails will not be sent")
	}
	dispatcher := notifications.NewDispatcher(notifications.NewSMTPSender(notifications.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}), cfg.AdminEmail, cfg.AppBaseURL, log)

	var publisher booking.EventPublisher = mq.Nop{}
	if cfg.AMQPURL != "" {
		p, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, lifecycle events disabled")
		} else {
			defer p.Close()
			publisher = p
		}
	}

	bookings := booking.NewService(booking.Deps{
		Store:     st.bookings,
		Catalog:   st.catalog,
		Gateway:   gateway,
		Tokens:    accesstoken.NewService(st.tokens, cfg.AccessTokenTTLDays),
		Mailer:    dispatcher,
		Publisher: publisher,
		Log:       log,
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}
	limiterStore, err := middleware.NewLimiterStore(rdb, "gymstay:ratelimit")
	if err != nil {
		log.Fatalf("rate limiter init failed: %v", err)
	}

	var verifier middleware.TokenVerifier
	if authClient != nil {
		verifier = authClient
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		AllowedOrigins: cfg.Origins(),
		Verifier:       verifier,
		Bookings:       bookings,
		Gateway:        gateway,
		LimiterStore:   limiterStore,
		PublicRate:     cfg.RateLimitPublic,
		TrustProxy:     cfg.TrustProxy,
		InternalSecret: cfg.InternalJWTSecret,
		Log:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver}).Info("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down...")
	_ = srv.Shutdown(ctxShutdown)
}

func openStores(ctx context.Context, cfg config.Config, fs *firebase.Firestore, log *logrus.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if _, err := database.Migrate(ctx, db, migrations.FS, log); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &stores{
			bookings: booking.NewPostgresRepo(db),
			catalog:  gym.NewPostgresRepo(db),
			tokens:   accesstoken.NewPostgresRepo(db),
			close:    func() { _ = db.Close() },
		}, nil
	case "memory":
		log.Warn("STORE_DRIVER=memory, data is lost on restart")
		return &stores{
			bookings: booking.NewMemoryStore(),
			catalog:  gym.NewMemoryCatalog(),
			tokens:   accesstoken.NewMemoryStore(),
			close:    func() {},
		}, nil
	default:
		if fs == nil {
			return nil, errors.New("firestore driver requires FIREBASE_PROJECT_ID")
		}
		return &stores{
			bookings: booking.NewRepo(fs.Client),
			catalog:  gym.NewRepo(fs.Client),
			tokens:   accesstoken.NewRepo(fs.Client),
			close:    func() {},
		}, nil
	}
}
