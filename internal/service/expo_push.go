package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ExpoPushClient sends push notifications through Expo's Push API.
// The mobile app registers its Expo push token via POST /devices/token.
type ExpoPushClient struct {
	httpClient *http.Client
	endpoint   string
}

// ExpoPushMessage is the payload for Expo's Push API.
type ExpoPushMessage struct {
	To       []string               `json:"to"`
	Title    string                 `json:"title,omitempty"`
	Body     string                 `json:"body"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Sound    string                 `json:"sound,omitempty"`
	Priority string                 `json:"priority,omitempty"`
}

type ExpoPushResponse struct {
	Data []ExpoPushTicket `json:"data"`
}

type ExpoPushTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

const expoPushURL = "https://exp.host/--/api/v2/push/send"

func NewExpoPushClient() *ExpoPushClient {
	return NewExpoPushClientWithEndpoint(expoPushURL)
}

// NewExpoPushClientWithEndpoint targets a different push endpoint, e.g. a test server.
func NewExpoPushClientWithEndpoint(endpoint string) *ExpoPushClient {
	return &ExpoPushClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
	}
}

func isExpoToken(token string) bool {
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

const expoDeviceNotRegistered = "DeviceNotRegistered"

// SendToTokens sends one notification to every valid Expo token. Tokens in another format are skipped.
// Per-ticket failures are logged; the tokens Expo reports as no longer registered are returned.
func (c *ExpoPushClient) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]string, error) {
	validTokens := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if isExpoToken(token) {
			validTokens = append(validTokens, token)
		} else {
			log.Printf("[ExpoPush] Skipping invalid token format: %s", token[:min(20, len(token))])
		}
	}
	if len(validTokens) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(ExpoPushMessage{
		To:       validTokens,
		Title:    title,
		Body:     body,
		Data:     data,
		Sound:    "default",
		Priority: "high",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var pushResp ExpoPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		log.Printf("[ExpoPush] Failed to parse response: %v", err)
		return nil, nil
	}

	// Tickets come back in the order of the request's "to" list.
	failed := 0
	var unregistered []string
	for i, ticket := range pushResp.Data {
		if ticket.Status == "ok" {
			continue
		}
		failed++
		log.Printf("[ExpoPush] Token %d failed: %s (error: %s)", i, ticket.Message, ticket.Details.Error)
		if ticket.Details.Error == expoDeviceNotRegistered && i < len(validTokens) {
			unregistered = append(unregistered, validTokens[i])
		}
	}
	log.Printf("[ExpoPush] Sent to %d tokens: %d failed", len(validTokens), failed)
	return unregistered, nil
}
