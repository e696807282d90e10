package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/storefront/internal/auth/domain"
)

func newAuthenticatedRouter(t *testing.T, uc *MockTokenUseCase) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/protected", AuthenticationMiddleware(uc, stubTokenService{}, discardLogger()), func(c *gin.Context) {
		client, ok := GetClient(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, client.Name)
	})
	return router
}

func TestAuthenticationMiddleware(t *testing.T) {
	client := &authDomain.Client{ID: uuid.Must(uuid.NewV7()), Name: "orders", IsActive: true}

	t.Run("Success_CaseInsensitiveScheme", func(t *testing.T) {
		for _, header := range []string{"Bearer tok", "bearer tok", "BEARER tok"} {
			uc := &MockTokenUseCase{}
			uc.On("Authenticate", mock.Anything, "hash:tok").Return(client, nil).Once()
			router := newAuthenticatedRouter(t, uc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", header)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, header)
			assert.Equal(t, "orders", w.Body.String())
			uc.AssertExpectations(t)
		}
	})

	t.Run("Error_MissingOrMalformedHeader", func(t *testing.T) {
		for _, header := range []string{"", "Basic abc", "Bearer", "Bearer   ", "tok"} {
			uc := &MockTokenUseCase{}
			router := newAuthenticatedRouter(t, uc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
			uc.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
		}
	})

	t.Run("Error_InvalidToken", func(t *testing.T) {
		uc := &MockTokenUseCase{}
		uc.On("Authenticate", mock.Anything, "hash:expired").Return(nil, authDomain.ErrInvalidCredentials).Once()
		router := newAuthenticatedRouter(t, uc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer expired")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_InactiveClient", func(t *testing.T) {
		uc := &MockTokenUseCase{}
		uc.On("Authenticate", mock.Anything, "hash:tok").Return(nil, authDomain.ErrClientInactive).Once()
		router := newAuthenticatedRouter(t, uc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer tok")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
