package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/storefront/internal/auth/domain"
)

type mockClientUseCase struct {
	mock.Mock
}

func (m *mockClientUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateClientInput,
) (*authDomain.CreateClientOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateClientOutput), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCreateClient(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	plainSecret := "test-secret"
	input := &authDomain.CreateClientInput{Name: "orders-service", IsActive: true}
	output := &authDomain.CreateClientOutput{ID: clientID, PlainSecret: plainSecret}

	t.Run("text", func(t *testing.T) {
		mockUseCase := &mockClientUseCase{}
		mockUseCase.On("Create", ctx, input).Return(output, nil)

		var out bytes.Buffer
		err := RunCreateClient(ctx, mockUseCase, discardLogger(), "orders-service", true, "text",
			IOTuple{Writer: &out})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Client ID: "+clientID.String())
		assert.Contains(t, out.String(), "Secret: "+plainSecret)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json", func(t *testing.T) {
		mockUseCase := &mockClientUseCase{}
		mockUseCase.On("Create", ctx, input).Return(output, nil)

		var out bytes.Buffer
		err := RunCreateClient(ctx, mockUseCase, discardLogger(), "orders-service", true, "json",
			IOTuple{Writer: &out})
		require.NoError(t, err)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Equal(t, clientID.String(), decoded["client_id"])
		assert.Equal(t, plainSecret, decoded["secret"])
		mockUseCase.AssertExpectations(t)
	})

	t.Run("inactive client", func(t *testing.T) {
		inactive := &authDomain.CreateClientInput{Name: "reporting", IsActive: false}
		mockUseCase := &mockClientUseCase{}
		mockUseCase.On("Create", ctx, inactive).Return(output, nil)

		err := RunCreateClient(ctx, mockUseCase, discardLogger(), "reporting", false, "text",
			IOTuple{Writer: &bytes.Buffer{}})

		require.NoError(t, err)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("use case error", func(t *testing.T) {
		mockUseCase := &mockClientUseCase{}
		mockUseCase.On("Create", ctx, input).Return(nil, errors.New("db down"))

		err := RunCreateClient(ctx, mockUseCase, discardLogger(), "orders-service", true, "text",
			IOTuple{Writer: &bytes.Buffer{}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create client: db down")
	})

	t.Run("invalid format", func(t *testing.T) {
		mockUseCase := &mockClientUseCase{}

		err := RunCreateClient(ctx, mockUseCase, discardLogger(), "orders-service", true, "yaml",
			IOTuple{Writer: &bytes.Buffer{}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format: yaml")
		mockUseCase.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
