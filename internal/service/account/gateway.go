// Package account is the client for the external account API: it
// submits completed registrations and verifies login credentials.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/bot/workflows/registration"
	"github.com/Kultup/helpDesk-sub006/internal/config"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
	"github.com/Kultup/helpDesk-sub006/internal/validation"
)

// Gateway talks to the account API over HTTP.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

// NewGateway creates the account API client.
func NewGateway(conf *config.Config, log *slog.Logger) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(conf.Account.BaseURL, "/"),
		apiKey:  conf.Account.ApiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With(sl.Module("account gateway")),
	}
}

// registerRequest is the payload of the account creation endpoint.
type registerRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Login          string `json:"login"`
	Phone          string `json:"phone"`
	Password       string `json:"password"`
	CityID         string `json:"city_id"`
	InstitutionID  string `json:"institution_id,omitempty"`
	PositionID     string `json:"position_id"`
	Department     string `json:"department"`
	TelegramChatID string `json:"telegram_chat_id"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register assembles the payload from the collected conversation fields,
// normalizes casing, and submits it. ok=false relays the API's own
// message; err means the API could not be reached, in which case the
// caller keeps the conversation state so nothing is re-entered.
func (g *Gateway) Register(ctx context.Context, state *chat.ConversationState) (bool, string, error) {
	department := state.GetString(registration.KeyDepartment)
	if department == "" {
		department = validation.DefaultDepartment
	}

	payload := registerRequest{
		FirstName:      strings.TrimSpace(state.GetString(registration.KeyFirstName)),
		LastName:       strings.TrimSpace(state.GetString(registration.KeyLastName)),
		Email:          strings.ToLower(state.GetString(registration.KeyEmail)),
		Login:          strings.ToLower(state.GetString(registration.KeyLogin)),
		Phone:          state.GetString(registration.KeyPhone),
		Password:       state.GetString(registration.KeyPassword),
		CityID:         state.GetString(registration.KeyCityID),
		InstitutionID:  state.GetString(registration.KeyInstitutionID),
		PositionID:     state.GetString(registration.KeyPositionID),
		Department:     department,
		TelegramChatID: state.ChatID,
	}

	resp, err := g.post(ctx, "/api/users/register", payload)
	if err != nil {
		g.log.Error("register call", sl.Err(err))
		return false, "", err
	}
	if !resp.Success {
		g.log.Info("registration rejected by api",
			slog.String("chat_id", state.ChatID),
			slog.String("message", resp.Message),
		)
	}
	return resp.Success, resp.Message, nil
}

type authRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Authenticate verifies login credentials against the account API.
func (g *Gateway) Authenticate(ctx context.Context, login, password string) (bool, string, error) {
	payload := authRequest{
		Login:    strings.ToLower(strings.TrimSpace(login)),
		Password: password,
	}

	resp, err := g.post(ctx, "/api/auth/login", payload)
	if err != nil {
		g.log.Error("auth call", sl.Err(err))
		return false, "", err
	}
	return resp.Success, resp.Message, nil
}

func (g *Gateway) post(ctx context.Context, path string, payload any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("account api responded with %d: %w", resp.StatusCode, err)
	}
	return &parsed, nil
}
