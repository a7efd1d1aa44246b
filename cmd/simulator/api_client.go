package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterUser creates a new account with a unique name derived from baseName
func (c *APIClient) RegisterUser(baseName string) (*User, string, error) {
	body := map[string]string{
		"displayName": fmt.Sprintf("%s_%d", baseName, time.Now().UnixNano()%100000),
		"password":    "simulator-password",
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusOK, &result); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return &result.User, result.AccessToken, nil
}

// CreateBuild publishes a build
func (c *APIClient) CreateBuild(token string, content domain.BuildContent) (*domain.Build, error) {
	var build domain.Build
	if err := c.do(http.MethodPost, "/builds", content, token, http.StatusCreated, &build); err != nil {
		return nil, fmt.Errorf("create build: %w", err)
	}
	return &build, nil
}

// ListBuilds fetches the public feed
func (c *APIClient) ListBuilds(sort string, limit int) ([]domain.Build, error) {
	q := url.Values{}
	q.Set("sort", sort)
	q.Set("limit", fmt.Sprint(limit))

	var builds []domain.Build
	if err := c.do(http.MethodGet, "/builds?"+q.Encode(), nil, "", http.StatusOK, &builds); err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	return builds, nil
}

// Vote upvotes a build as the token's user
func (c *APIClient) Vote(token, buildID string) (*domain.Build, error) {
	var build domain.Build
	if err := c.do(http.MethodPost, "/builds/"+buildID+"/vote", nil, token, http.StatusOK, &build); err != nil {
		return nil, fmt.Errorf("vote: %w", err)
	}
	return &build, nil
}

// RecordView counts one view of a build
func (c *APIClient) RecordView(buildID string) error {
	return c.do(http.MethodPost, "/builds/"+buildID+"/views", nil, "", http.StatusNoContent, nil)
}

// AddTimer registers a crafting timer
func (c *APIClient) AddTimer(token, itemName string, start, end time.Time) (*domain.CraftingNotification, error) {
	body := map[string]interface{}{
		"itemName":  itemName,
		"category":  "Simulated",
		"startTime": start,
		"endTime":   end,
		"quantity":  1,
	}

	var n domain.CraftingNotification
	if err := c.do(http.MethodPost, "/notifications", body, token, http.StatusCreated, &n); err != nil {
		return nil, fmt.Errorf("add timer: %w", err)
	}
	return &n, nil
}

// DialPush opens the push channel for the token's user
func (c *APIClient) DialPush(token string) (*gorillaWS.Conn, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws?token=" + url.QueryEscape(token)
	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial push channel: %w", err)
	}
	return conn, nil
}

// WaitFor reads push messages until one of type want arrives or timeout passes
func WaitFor(conn *gorillaWS.Conn, want websocket.MessageType, timeout time.Duration) (*websocket.Message, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		var msg websocket.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return nil, err
		}
		if msg.Type == want {
			return &msg, nil
		}
	}
}

func (c *APIClient) do(method, path string, body interface{}, token string, wantStatus int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
