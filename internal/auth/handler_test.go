package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*mux.Router, *Service, redismock.ClientMock) {
	t.Helper()

	service, _, mock := newTestService(t)
	router := mux.NewRouter()
	noRateLimit := func(next http.Handler) http.Handler { return next }
	NewHandler(service).SetupRoutes(router, noRateLimit)
	return router, service, mock
}

func doRequest(router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_SignUpConfirmLogin(t *testing.T) {
	router, _, mock := newTestHandler(t)

	email := gofakeit.Email()
	name := gofakeit.FirstName()
	password := gofakeit.Password(true, true, true, false, false, 12)
	signUpBody := fmt.Sprintf(`{"email":%q,"password":%q,"name":%q}`, email, password, name)

	rr := doRequest(router, "POST", "/signup", signUpBody)
	require.Equal(t, http.StatusCreated, rr.Code)

	var signUpResp struct {
		ConfirmationRequired bool   `json:"confirmationRequired"`
		ConfirmToken         string `json:"confirmToken"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &signUpResp))
	assert.True(t, signUpResp.ConfirmationRequired)
	assert.Equal(t, testToken, signUpResp.ConfirmToken)

	// duplicate signup
	rr = doRequest(router, "POST", "/signup", signUpBody)
	assert.Equal(t, http.StatusConflict, rr.Code)

	loginBody := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)

	// cannot sign in before confirming
	rr = doRequest(router, "POST", "/login", loginBody)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(router, "POST", "/confirm", fmt.Sprintf(`{"token":%q}`, signUpResp.ConfirmToken))
	require.Equal(t, http.StatusOK, rr.Code)

	// wrong password
	rr = doRequest(router, "POST", "/login", fmt.Sprintf(`{"email":%q,"password":"wrong-pass-1"}`, email))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	sessionKey := sessionKeyPrefix + testToken
	mock.Regexp().ExpectHSet(
		regexp.QuoteMeta(sessionKey), "user_id", ".+", "created_at", `\d+`,
	).SetVal(2)
	mock.Regexp().ExpectSAdd(
		regexp.QuoteMeta(tokensSetKey), regexp.QuoteMeta(testToken),
	).SetVal(1)

	rr = doRequest(router, "POST", "/login", loginBody)
	require.Equal(t, http.StatusOK, rr.Code)

	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loginResp))
	assert.Equal(t, testToken, loginResp.Token)
}

func TestHandler_SignUp_BadInput(t *testing.T) {
	router, _, _ := newTestHandler(t)

	rr := doRequest(router, "POST", "/signup", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, "POST", "/signup", `{"email":"not-an-email","password":"secret-pass-1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, "POST", "/signup", fmt.Sprintf(`{"email":%q,"password":"short"}`, gofakeit.Email()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Confirm_InvalidToken(t *testing.T) {
	router, _, _ := newTestHandler(t)

	rr := doRequest(router, "POST", "/confirm", `{"token":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Logout(t *testing.T) {
	router, _, mock := newTestHandler(t)

	// no session token header
	rr := doRequest(router, "GET", "/logout", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	sessionKey := sessionKeyPrefix + testToken
	mock.ExpectDel(sessionKey).SetVal(1)
	mock.ExpectSRem(tokensSetKey, testToken).SetVal(1)

	req := httptest.NewRequest("GET", "/logout", nil)
	req.Header.Set(SessionTokenHeader, testToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "logged-out", rr.Body.String())
}
