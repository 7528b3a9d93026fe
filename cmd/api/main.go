package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/chat"
	"github.com/ariefcatur/go-chat-orders/internal/config"
	"github.com/ariefcatur/go-chat-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-chat-orders/internal/kafka"
	"github.com/ariefcatur/go-chat-orders/internal/menu"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/ariefcatur/go-chat-orders/internal/payment"
	"github.com/ariefcatur/go-chat-orders/internal/postgres"
	"github.com/ariefcatur/go-chat-orders/internal/redisx"
	"github.com/ariefcatur/go-chat-orders/internal/session"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.PaystackSecretKey == "" {
		log.Warn("PAYSTACK_SECRET_KEY is empty; checkout will be rejected by the provider")
	}

	// Session + pending payment stores
	var (
		store   session.Store
		pending payment.PendingStore
	)
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("redis ping")
		}
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
		pending = payment.NewRedisPendingStore(rdb, cfg.PendingTxTTL)
	} else {
		log.Warn("REDIS_ADDR is empty; sessions are kept in memory")
		mem := session.NewMemoryStore(cfg.SessionTTL)
		memPending := payment.NewMemoryPendingStore(cfg.PendingTxTTL)
		go mem.Run(ctx, time.Minute)
		go memPending.Run(ctx, time.Minute)
		store, pending = mem, memPending
	}

	// Kafka producer
	var (
		pub  kafkax.Publisher = kafkax.Discard{}
		prod *kafkax.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		prod.Start(ctx)
		pub = prod
	}

	// Optional history archive
	var history httpx.HistoryLister
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("db connect")
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.WithError(err).Fatal("db schema")
		}
		history = &orders.HistoryRepo{DB: db}
	}

	gw := payment.NewBreaker(
		payment.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.GatewayTimeout),
		payment.BreakerSettings{}, log,
	)

	catalog := menu.Default()
	locker := session.NewLocker()
	ctrl := chat.NewController(catalog, gw, pending, pub, chat.Options{
		ServiceName: cfg.ServiceName,
		CallbackURL: cfg.CallbackURL(),
		EmailDomain: cfg.EmailDomain,
	}, log)

	router := httpx.NewRouter(log)
	h := &httpx.ChatHandler{
		Chat:         chat.NewService(ctrl, store, locker, log),
		Callbacks:    chat.NewCallbacks(store, locker, gw, pending, pub, cfg.ServiceName, log),
		Catalog:      catalog,
		History:      history,
		RedirectURL:  cfg.ClientRedirectURL,
		SecureCookie: cfg.CookieSecure,
		Log:          log,
	}
	h.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel()
	if prod != nil {
		prod.Close() // flush buffered events
		prod.WaitClosed()
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if lv, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lv)
	}
	return log
}
