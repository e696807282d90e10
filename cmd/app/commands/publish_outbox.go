package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	outboxUseCase "github.com/allisson/storefront/internal/outbox/usecase"
)

// OutboxCycleRunner runs one relay cycle.
type OutboxCycleRunner interface {
	ProcessMessages(ctx context.Context) (outboxUseCase.CycleResult, error)
}

// RunPublishOutbox drains one batch of the outbox to the message channel and reports
// how many messages were fetched, published and left for a later cycle.
func RunPublishOutbox(
	ctx context.Context,
	relay OutboxCycleRunner,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("publishing outbox messages")

	result, err := relay.ProcessMessages(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish outbox messages: %w", err)
	}

	if format == "json" {
		err = writeJSON(writer, map[string]int{
			"fetched":   result.Fetched,
			"published": result.Published,
			"failed":    result.Failed,
		})
	} else {
		_, err = fmt.Fprintf(writer, "Fetched: %d\nPublished: %d\nFailed: %d\n",
			result.Fetched, result.Published, result.Failed)
	}
	if err != nil {
		return err
	}

	logger.Info("outbox cycle completed",
		slog.Int("fetched", result.Fetched),
		slog.Int("published", result.Published),
		slog.Int("failed", result.Failed),
	)
	return nil
}
