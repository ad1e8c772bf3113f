package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/attested/dossier/internal/queue"
	mid "github.com/attested/dossier/internal/server/middleware"
	"github.com/attested/dossier/internal/storage"
	"github.com/attested/dossier/internal/util"
	"github.com/attested/dossier/pkg/ai"
	oai "github.com/attested/dossier/pkg/ai/ollama"
	gai "github.com/attested/dossier/pkg/ai/openai"
	"github.com/attested/dossier/pkg/graph"
	"github.com/attested/dossier/pkg/logger"
	"github.com/attested/dossier/pkg/sanctions"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	jwksUrl := util.GetEnv("AUTH_URL") + "/jwks"
	k, err := keyfunc.NewDefault([]string{jwksUrl})
	if err != nil {
		logger.Fatal("Failed to load jwks keys", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations()

	pgCfg, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid database URL", "err", err)
	}
	pgCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	if err := queue.SetupQueues(ch, []string{queue.ScreeningQueue}); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

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

	masterAPIKey := util.GetEnv("MASTER_API_KEY")
	masterUserID, _ := strconv.ParseInt(util.GetEnv("MASTER_USER_ID"), 10, 64)
	masterUserRole := util.GetEnv("MASTER_USER_ROLE")

	app := &mid.App{
		DBConn:         conn,
		Queue:          ch,
		Key:            &k,
		S3:             s3,
		Sanctions:      sanctionsClient,
		Enricher:       enricher,
		AiClient:       newAIClientFromEnv(),
		MasterAPIKey:   masterAPIKey,
		MasterUserID:   masterUserID,
		MasterUserRole: masterUserRole,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

func runMigrations() {
	sourceURL := "file://" + util.GetEnvString("MIGRATIONS_PATH", "migrations")
	m, err := migrate.New(sourceURL, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to init migrations", "err", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}

// newAIClientFromEnv returns nil when no adapter is configured; summary
// generation and similarity search are then disabled.
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
			logger.Fatal("Failed to create Ollama client", "err", err)
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
