package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	authDomain "github.com/allisson/storefront/internal/auth/domain"
	authUseCase "github.com/allisson/storefront/internal/auth/usecase"
)

// RunCreateClient registers a client allowed to call the inventory API and prints its
// id and plain secret in text or JSON format. The secret cannot be retrieved later.
//
// Requirements: the inventory database must be migrated and accessible.
func RunCreateClient(
	ctx context.Context,
	clientUseCase authUseCase.ClientUseCase,
	logger *slog.Logger,
	name string,
	isActive bool,
	format string,
	io IOTuple,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("creating new client", slog.String("name", name))

	output, err := clientUseCase.Create(ctx, &authDomain.CreateClientInput{
		Name:     name,
		IsActive: isActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if format == "json" {
		err = writeJSON(io.Writer, map[string]string{
			"client_id": output.ID.String(),
			"secret":    output.PlainSecret,
		})
	} else {
		err = outputClientText(output, io.Writer)
	}
	if err != nil {
		return err
	}

	logger.Info("client created successfully",
		slog.String("client_id", output.ID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}

func outputClientText(output *authDomain.CreateClientOutput, writer io.Writer) error {
	_, err := fmt.Fprintf(
		writer,
		"\nClient created successfully!\nClient ID: %s\nSecret: %s\n\n"+
			"IMPORTANT: The secret is shown only once. Store it securely.\n",
		output.ID.String(),
		output.PlainSecret,
	)
	return err
}
