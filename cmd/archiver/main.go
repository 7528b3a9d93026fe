package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-chat-orders/internal/archive"
	"github.com/ariefcatur/go-chat-orders/internal/config"
	kafkax "github.com/ariefcatur/go-chat-orders/internal/kafka"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/ariefcatur/go-chat-orders/internal/postgres"
	"github.com/ariefcatur/go-chat-orders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.PostgresDSN == "" || len(cfg.KafkaBrokers) == 0 {
		log.Fatal("archiver needs POSTGRES_DSN and KAFKA_BROKERS")
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.WithError(err).Fatal("db schema")
	}

	svc := &archive.Service{
		Repo:        &orders.HistoryRepo{DB: db},
		ServiceName: cfg.ServiceName + "-archiver",
		Log:         log,
	}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		svc.Redis = rdb
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ArchiverGroup, orders.TopicOrderPaid, cfg.ArchiverWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.WithFields(logrus.Fields{
			"group":   cfg.ArchiverGroup,
			"topic":   orders.TopicOrderPaid,
			"workers": cfg.ArchiverWorkers,
		}).Info("archiver consumer started")
		if err := cons.Start(ctx, svc.HandleOrderPaid); err != nil {
			log.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer...")
	cancel()
	<-done
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if lv, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lv)
	}
	return log
}
