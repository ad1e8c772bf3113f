package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/attested/dossier/internal/util"
	"github.com/attested/dossier/pkg/ai"
	pgdb "github.com/attested/dossier/pkg/db/pgx"
	"github.com/attested/dossier/pkg/graph"
	"github.com/attested/dossier/pkg/leaselock"
	"github.com/attested/dossier/pkg/logger"
	"github.com/attested/dossier/pkg/notes"
	"github.com/attested/dossier/pkg/sanctions"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ScreeningJobMsg is the message body published to the screening queue.
// WithSummary mirrors the run row; the row is authoritative when they
// disagree, so recovered messages cannot drop the flag.
type ScreeningJobMsg struct {
	RunID       string `json:"run_id"`
	EntityID    string `json:"entity_id"`
	WithSummary bool   `json:"with_summary"`
}

// ErrBadMessage marks a message that can never be processed, regardless of
// how often it is redelivered.
var ErrBadMessage = errors.New("bad screening message")

// IsRetryableProcessing classifies a ProcessScreening error for redelivery.
// Upstream API errors follow the transport taxonomy; unparseable messages
// are permanent; everything else is infrastructure (database, broker, sink)
// and worth another attempt.
func IsRetryableProcessing(err error) bool {
	if errors.Is(err, ErrBadMessage) {
		return false
	}
	var apiErr *sanctions.APIError
	if errors.As(err, &apiErr) {
		return sanctions.IsRetryable(err)
	}
	return true
}

// ProcessScreening handles a single screening job: it enriches the entity,
// renders a markdown note, stores the note in the run's configured sink,
// and records the outcome on the screening run.
//
// Transient failures put the run back to pending and return the error, so
// the retry queue can redeliver. Terminal failures mark the run as failed
// and still return the error for logging; redeliveries then find the run
// no longer pending and ack without work.
func ProcessScreening(
	ctx context.Context,
	s3Client *awss3.Client,
	aiClient ai.Client,
	enricher *graph.Enricher,
	locks *leaselock.Client,
	conn *pgxpool.Pool,
	msg string,
) (err error) {
	data := new(ScreeningJobMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if data.RunID == "" || data.EntityID == "" {
		return fmt.Errorf("%w: missing run_id or entity_id: %s", ErrBadMessage, msg)
	}

	q := pgdb.New(conn)

	run, err := q.MarkScreeningRunRunning(ctx, data.RunID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("[Queue] Screening run not pending, skipping", "run_id", data.RunID)
			return nil
		}
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if IsRetryableProcessing(err) {
			if resetErr := q.ResetScreeningRunToPending(updateCtx, data.RunID); resetErr != nil {
				logger.Warn("[Queue] Failed to reset screening run", "run_id", data.RunID, "err", resetErr)
			}
			return
		}
		if _, failErr := q.FailScreeningRun(updateCtx, pgdb.FailScreeningRunParams{
			PublicID:     data.RunID,
			ErrorKind:    pgtype.Text{String: string(sanctions.KindOf(err)), Valid: true},
			ErrorMessage: pgtype.Text{String: util.SanitizePostgresText(err.Error()), Valid: true},
		}); failErr != nil {
			logger.Warn("[Queue] Failed to mark screening run as failed", "run_id", data.RunID, "err", failErr)
		}
	}()

	lockOpts := leaselock.Options{
		TTL:         10 * time.Minute,
		Wait:        true,
		TokenPrefix: "screen_",
	}
	return locks.WithLease(ctx, "screen:"+data.EntityID, lockOpts, func(ctx context.Context) error {
		enriched, err := enricher.FetchWithRelationships(ctx, data.EntityID)
		if err != nil {
			return err
		}

		summary := ""
		if run.WithSummary && aiClient != nil {
			summary, err = generateSummary(ctx, aiClient, enriched)
			if err != nil {
				logger.Warn("[Queue] Summary generation failed, continuing without", "run_id", data.RunID, "err", err)
				summary = ""
			}
		}

		rules, err := notes.LoadRules(util.GetEnv("NOTE_RULES_PATH"))
		if err != nil {
			return err
		}
		content, err := notes.Render(enriched, rules, summary, time.Now().UTC())
		if err != nil {
			return err
		}

		sink := sinkFor(run.NoteSink, s3Client)
		filename := notes.Filename(enriched.Captions.Display(data.EntityID), data.EntityID)
		var location string
		err = util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
			var putErr error
			location, putErr = sink.Put(ctx, filename, content)
			return putErr
		})
		if err != nil {
			return err
		}

		caption := util.SanitizePostgresText(enriched.Entity.Caption)
		if _, err := q.CompleteScreeningRun(ctx, pgdb.CompleteScreeningRunParams{
			PublicID:          data.RunID,
			Caption:           pgtype.Text{String: caption, Valid: caption != ""},
			Schema:            pgtype.Text{String: enriched.Entity.Schema, Valid: enriched.Entity.Schema != ""},
			NoteLocation:      pgtype.Text{String: location, Valid: true},
			RelationshipCount: int32(enriched.Relationships.Count()),
		}); err != nil {
			return err
		}

		if aiClient != nil {
			storeEmbedding(ctx, aiClient, q, data.RunID, enriched, summary)
		}

		return nil
	})
}

func sinkFor(noteSink string, s3Client *awss3.Client) notes.Sink {
	if noteSink == "s3" && s3Client != nil {
		return &notes.S3Sink{
			Client: s3Client,
			Prefix: util.GetEnvString("NOTES_PREFIX", "notes"),
		}
	}
	return &notes.DirSink{Dir: util.GetEnvString("NOTES_DIR", "notes")}
}

func generateSummary(ctx context.Context, aiClient ai.Client, enriched *graph.EnrichedEntity) (string, error) {
	in := ai.SummaryInput{
		Caption: enriched.Captions.Display(enriched.Entity.ID),
		Schema:  enriched.Entity.Schema,
	}
	for _, bucket := range enriched.Relationships.Buckets() {
		in.Relationships = append(in.Relationships,
			fmt.Sprintf("%s: %s", bucket.Label, strings.Join(bucket.Names, ", ")))
	}
	for prop, values := range enriched.Entity.Properties {
		for _, v := range values {
			if v.Str != "" {
				in.Facts = append(in.Facts, fmt.Sprintf("%s: %s", prop, v.Str))
			}
		}
	}
	return ai.GenerateDossierSummary(ctx, aiClient, in)
}

// storeEmbedding indexes the run for similarity search over past
// screenings. Failures only cost the run its similar-search entry.
func storeEmbedding(
	ctx context.Context,
	aiClient ai.Client,
	q *pgdb.Queries,
	runID string,
	enriched *graph.EnrichedEntity,
	summary string,
) {
	text := enriched.Entity.Caption
	if summary != "" {
		text += "\n" + summary
	}
	vec, err := aiClient.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		logger.Warn("[Queue] Embedding generation failed", "run_id", runID, "err", err)
		return
	}
	if err := q.UpdateScreeningRunEmbedding(ctx, pgdb.UpdateScreeningRunEmbeddingParams{
		PublicID:  runID,
		Embedding: pgvector.NewVector(vec),
	}); err != nil {
		logger.Warn("[Queue] Failed to store run embedding", "run_id", runID, "err", err)
	}
}
