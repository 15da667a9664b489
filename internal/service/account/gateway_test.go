package account

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/bot/workflows/registration"
	"github.com/Kultup/helpDesk-sub006/internal/config"
	"github.com/Kultup/helpDesk-sub006/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	conf := &config.Config{}
	conf.Account.BaseURL = server.URL
	conf.Account.ApiKey = "test-key"
	return NewGateway(conf, testLogger()), server
}

func registrationState() *chat.ConversationState {
	state := chat.NewConversationState("100", "olena", registration.WorkflowID, registration.StepCompleted)
	state.MergeFields(map[string]any{
		registration.KeyFirstName:  " Олена ",
		registration.KeyLastName:   "Петренко",
		registration.KeyEmail:      "Olena@Example.com",
		registration.KeyLogin:      "Olena_P",
		registration.KeyPhone:      "+380501234567",
		registration.KeyPassword:   "pass123",
		registration.KeyCityID:     "c1",
		registration.KeyPositionID: "p1",
	})
	return state
}

func TestRegisterNormalizesPayload(t *testing.T) {
	var got registerRequest
	var auth string
	gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/register", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(apiResponse{Success: true, Message: "created"})
	})

	ok, message, err := gw.Register(context.Background(), registrationState())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "created", message)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "Олена", got.FirstName)
	assert.Equal(t, "olena@example.com", got.Email)
	assert.Equal(t, "olena_p", got.Login)
	assert.Equal(t, validation.DefaultDepartment, got.Department, "empty department falls back to the default")
	assert.Equal(t, "100", got.TelegramChatID)
	assert.Empty(t, got.InstitutionID, "skipped institution stays absent")
}

func TestRegisterRelaysApiRejection(t *testing.T) {
	gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{Success: false, Message: "Ліміт користувачів вичерпано"})
	})

	ok, message, err := gw.Register(context.Background(), registrationState())
	require.NoError(t, err, "an API rejection is not a transport error")
	assert.False(t, ok)
	assert.Equal(t, "Ліміт користувачів вичерпано", message)
}

func TestRegisterUnreachableApi(t *testing.T) {
	gw, server := newGateway(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, _, err := gw.Register(context.Background(), registrationState())
	require.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	var got authRequest
	gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(apiResponse{Success: true})
	})

	ok, _, err := gw.Authenticate(context.Background(), " Olena_P ", "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "olena_p", got.Login)
	assert.Equal(t, "secret1", got.Password, "passwords are never normalized")
}

func TestAuthenticateGarbageResponse(t *testing.T) {
	gw, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>502</html>"))
	})

	_, _, err := gw.Authenticate(context.Background(), "olena_p", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
