package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/pushstats/internal/auth"
	"github.com/2beens/pushstats/internal/middleware"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockChecker := NewMockChecker(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockChecker)

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		sessionUserID      string
		sessionErr         error
		expectedStatusCode int
		expectedUserID     string
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/a/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "VariationsCatalogWithoutToken",
			path:               "/pushups/variations",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathWithoutToken",
			path:               "/pushups/me",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/pushups/me",
			method:             "GET",
			token:              "valid-token",
			sessionUserID:      "user-1",
			expectedStatusCode: http.StatusOK,
			expectedUserID:     "user-1",
		},
		{
			name:               "UnknownToken",
			path:               "/pushups/me",
			method:             "GET",
			token:              "stale-token",
			sessionErr:         auth.ErrSessionNotFound,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "SessionStoreDown",
			path:               "/pushups/me",
			method:             "GET",
			token:              "broken-token",
			sessionErr:         assert.AnError,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "PreflightRequest",
			path:               "/pushups/sets",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			assert.NoError(t, err)
			if tc.token != "" {
				req.Header.Add(auth.SessionTokenHeader, tc.token)
				mockChecker.EXPECT().
					GetSession(gomock.Any(), tc.token).
					Return(tc.sessionUserID, tc.sessionErr).AnyTimes()
			}

			var seenUserID string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenUserID, _ = middleware.UserIDFromContext(r.Context())
			})

			rr := httptest.NewRecorder()
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedUserID != "" {
				assert.Equal(t, tc.expectedUserID, seenUserID)
			}
		})
	}
}
