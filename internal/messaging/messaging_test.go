package messaging

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler(received chan<- Message) Handler {
	return func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	}
}
