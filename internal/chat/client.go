package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorRunes caps how much upstream error text gets carried back to
// callers; chat hosts display these messages.
const maxErrorRunes = 200

// Client handles communication with the chat collaborator's webhook
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewClient creates a new chat client with the given configuration
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL:    baseURL,
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendText delivers text to the identified chat and returns the
// collaborator's message ID.
func (c *Client) SendText(ctx context.Context, chatKey, text string) (string, error) {
	msg := Message{
		ChatKey: chatKey,
		Text:    text,
		Format:  "text",
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Chat-Secret", c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat webhook returned status %d: %s", resp.StatusCode, truncate(string(body)))
	}

	var result SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.MessageID, nil
}

// DeliverBriefing sends a rendered brief and returns a short
// confirmation string instead of echoing the full text back.
func (c *Client) DeliverBriefing(ctx context.Context, chatKey, text string) (string, error) {
	msgID, err := c.SendText(ctx, chatKey, text)
	if err != nil {
		return "", fmt.Errorf("briefing delivery failed: %s", truncate(err.Error()))
	}
	return fmt.Sprintf("早报已发送 (message %s)", msgID), nil
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxErrorRunes {
		return s
	}
	return string(runes[:maxErrorRunes]) + "..."
}
