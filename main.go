package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"runtime"

	"github.com/IBM/sarama"
	_ "github.com/go-sql-driver/mysql"

	"fiadopay/config"
	"fiadopay/dataservice"
	"fiadopay/payment"
	"fiadopay/registry"
	"fiadopay/webhook"
	"fiadopay/worker"
)

func main() {
	cfg := config.Load()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	if err := dataservice.InitDB(context.Background(), db); err != nil {
		log.Fatal("init db:", err)
	}
	store := dataservice.New(db)

	// A broker is not a hard dependency: without one, only webhooks carry
	// the events.
	producer, err := initKafkaProducer(cfg.KafkaBrokers)
	if err != nil {
		log.Printf("kafka producer unavailable, events disabled: %v", err)
	} else {
		defer producer.Close()
	}

	settlePool := worker.New("pay-worker", runtime.NumCPU())
	webhookPool := worker.New("webhook", cfg.WebhookWorkers)
	defer settlePool.Stop()
	defer webhookPool.Stop()

	dispatcher := webhook.NewDispatcher(store, store, webhookPool, cfg.WebhookSecret, cfg.WebhookTimeout)

	svc := payment.NewService(
		store, store,
		registry.Default(cfg.CardMonthlyRate),
		settlePool,
		dispatcher,
		producer,
		cfg.KafkaTopic,
		payment.Settings{
			ProcessingDelay: cfg.ProcessingDelay,
			FailureRate:     cfg.FailureRate,
		},
	)

	mux := http.NewServeMux()
	payment.RegisterRoutes(mux, svc)

	log.Printf("Starting the server on %s...", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, mux))
}

func initKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	kcfg := sarama.NewConfig()
	kcfg.Producer.RequiredAcks = sarama.WaitForAll
	kcfg.Producer.Retry.Max = 5
	kcfg.Producer.Return.Successes = true
	return sarama.NewSyncProducer(brokers, kcfg)
}
