package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attested/dossier/internal/queue"
	"github.com/attested/dossier/internal/storage"
	"github.com/attested/dossier/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/attested/dossier/pkg/ai"
	oai "github.com/attested/dossier/pkg/ai/ollama"
	gai "github.com/attested/dossier/pkg/ai/openai"
	"github.com/attested/dossier/pkg/graph"
	"github.com/attested/dossier/pkg/leaselock"
	"github.com/attested/dossier/pkg/logger"
	"github.com/attested/dossier/pkg/logger/console"
	"github.com/attested/dossier/pkg/sanctions"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	// Init s3 client
	s3Client := storage.NewS3Client(ctx)

	aiClient := newAIClientFromEnv()

	sanctionsClient := sanctions.NewClient(sanctions.NewClientParams{
		BaseURL:            util.GetEnvString("SCREENING_API_URL", "https://api.opensanctions.org"),
		APIKey:             util.GetEnv("SCREENING_API_KEY"),
		MinRequestInterval: time.Duration(util.GetEnvNumeric("SCREENING_API_INTERVAL_MS", 100)) * time.Millisecond,
		MaxRetries:         int(util.GetEnvNumeric("SCREENING_API_RETRIES", 3)),
	})
	enricher := graph.NewEnricher(graph.NewEnricherParams{
		API:           sanctionsClient,
		AdjacentLimit: int(util.GetEnvNumeric("SCREENING_ADJACENT_LIMIT", 200)),
		MaxParallel:   int(util.GetEnvNumeric("SCREENING_RESOLVE_PARALLEL", 5)),
	})

	// Init pgx client
	pgCfg, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid database URL", "err", err)
	}
	pgCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pgConn, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	locks := leaselock.New(pgConn)

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.ScreeningQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	if err := queue.RecoverStaleRuns(ctx, ch, pgConn); err != nil {
		logger.Error("Failed to recover stale runs", "err", err)
	}

	logger.Info("Listening for messages")

	// Single consumer channel with prefetch=1 so only one message is
	// in flight at a time across all queues.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.ScreeningQueue:
					processingErr = queue.ProcessScreening(ctx, s3Client, aiClient, enricher, locks, pgConn, string(qm.msg.Body))
				}

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(consumerCh, qm.msg, qm.queueName, processingErr)
				} else {
					if err := qm.msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				if aiClient != nil {
					metrics := aiClient.GetMetrics()
					if metrics.TotalTokens > 0 {
						logger.Info(
							"AI Metrics",
							"input_tokens", metrics.InputTokens,
							"output_tokens", metrics.OutputTokens,
							"total_tokens", metrics.TotalTokens,
						)
					}
					aiClient.ResetMetrics()
				}

				processingDuration := time.Since(startTime)
				logger.Info("Processing time", "duration", processingDuration.Round(time.Millisecond).String())
				logger.Info("Waiting for next message")
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string, processingErr error) {
	// Terminal failures are already recorded on the run; retrying would
	// only find the run no longer pending. Ack and move on.
	if !queue.IsRetryableProcessing(processingErr) {
		if err := msg.Ack(false); err != nil {
			logger.Error("Failed to ack message", "err", err)
		}
		return
	}

	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// If message has been retried 10 times, send to dead-letter
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "text/plain",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "text/plain",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

// newAIClientFromEnv returns nil when no adapter is configured; the worker
// then skips summaries and embeddings.
func newAIClientFromEnv() ai.Client {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewOllamaClient(oai.NewOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 2)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	case "openai":
		return gai.NewOpenAIClient(gai.NewOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentEmbeddings: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
	default:
		return nil
	}
}
