package queue

import (
	"context"
	"encoding/json"
	"fmt"

	pgdb "github.com/attested/dossier/pkg/db/pgx"
	"github.com/attested/dossier/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// recoveryMessage rebuilds a queue payload from a screening run row, so a
// recovered run keeps the options it was created with.
func recoveryMessage(run pgdb.ScreeningRun) ([]byte, error) {
	return json.Marshal(ScreeningJobMsg{
		RunID:       run.PublicID,
		EntityID:    run.EntityID,
		WithSummary: run.WithSummary,
	})
}

// RecoverStaleRuns finds screening runs stuck in the pending or running
// state, puts them back to pending, and republishes them to the screening
// queue. Called on worker start so crashed workers and lost messages do
// not strand runs.
func RecoverStaleRuns(
	ctx context.Context,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
) error {
	q := pgdb.New(conn)

	staleRuns, err := q.GetStaleScreeningRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stale screening runs: %w", err)
	}

	if len(staleRuns) == 0 {
		logger.Debug("[Queue] No stale screening runs found")
		return nil
	}

	logger.Info("[Queue] Found stale screening runs", "count", len(staleRuns))

	for _, run := range staleRuns {
		if run.Status == pgdb.ScreeningStatusRunning {
			if err := q.ResetScreeningRunToPending(ctx, run.PublicID); err != nil {
				logger.Error("[Queue] Failed to reset stale run", "run_id", run.PublicID, "err", err)
				continue
			}
		}

		msgBytes, err := recoveryMessage(run)
		if err != nil {
			logger.Error("[Queue] Failed to marshal screening message", "run_id", run.PublicID, "err", err)
			continue
		}

		if err := PublishFIFO(ch, ScreeningQueue, msgBytes); err != nil {
			logger.Error("[Queue] Failed to republish stale run", "run_id", run.PublicID, "err", err)
			continue
		}

		logger.Info("[Queue] Recovered stale screening run", "run_id", run.PublicID, "entity_id", run.EntityID)
	}

	return nil
}
