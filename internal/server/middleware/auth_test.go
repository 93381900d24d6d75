package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAuth(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		config         AuthConfig
		path           string
		authorization  string
		expectedStatus int
	}{
		{
			name:           "no token configured",
			config:         AuthConfig{},
			path:           "/v1/sync",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "public path",
			config:         AuthConfig{Token: "secret", PublicPaths: DefaultPublicPaths()},
			path:           "/health",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "valid bearer token",
			config:         AuthConfig{Token: "secret"},
			path:           "/v1/sync",
			authorization:  "Bearer secret",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong token",
			config:         AuthConfig{Token: "secret"},
			path:           "/v1/sync",
			authorization:  "Bearer guess",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "raw token without bearer prefix",
			config:         AuthConfig{Token: "secret"},
			path:           "/v1/sync",
			authorization:  "secret",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing header",
			config:         AuthConfig{Token: "secret", PublicPaths: DefaultPublicPaths()},
			path:           "/v1/batch",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Auth(tt.config, &logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, called)
			if rec.Code == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"UNAUTHORIZED"`)
			}
		})
	}
}
