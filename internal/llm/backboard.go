package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// ErrStreamingOnly signals that the provider does not support
// non-streaming completion for the requested model and the caller
// should retry with Stream.
var ErrStreamingOnly = errors.New("provider requires streaming")

const streamingRequiredCode = "streaming_required"

// BackboardClient talks to the Backboard conversation API: assistants,
// threads, and per-thread messages routed to a named provider/model.
type BackboardClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewBackboardClient(apiKey, baseURL string) *BackboardClient {
	return &BackboardClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type createAssistantRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createAssistantResponse struct {
	AssistantID string `json:"assistant_id"`
}

func (c *BackboardClient) CreateAssistant(ctx context.Context, name, description string) (string, error) {
	body, err := c.post(ctx, "/assistants", createAssistantRequest{Name: name, Description: description})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}

	var result createAssistantResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal assistant response: %w", err)
	}
	if result.AssistantID == "" {
		return "", fmt.Errorf("create assistant: empty assistant_id in response")
	}
	return result.AssistantID, nil
}

type createThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

func (c *BackboardClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	body, err := c.post(ctx, "/assistants/"+assistantID+"/threads", struct{}{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	var result createThreadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("unmarshal thread response: %w", err)
	}
	if result.ThreadID == "" {
		return "", fmt.Errorf("create thread: empty thread_id in response")
	}
	return result.ThreadID, nil
}

type addMessageRequest struct {
	Content     string `json:"content"`
	LLMProvider string `json:"llm_provider"`
	ModelName   string `json:"model_name"`
	Stream      bool   `json:"stream"`
}

// Complete sends the prompt and returns the full response text.
// Returns ErrStreamingOnly when the provider reports the model only
// supports streaming output; any other failure propagates as-is.
func (c *BackboardClient) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	body, err := c.post(ctx, "/threads/"+req.ThreadID+"/messages", addMessageRequest{
		Content:     req.Content,
		LLMProvider: req.Provider,
		ModelName:   req.Model,
		Stream:      false,
	})
	if err != nil {
		return "", err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("unmarshal message response: %w", err)
	}
	return extractText(payload), nil
}

// Stream sends the prompt with streaming enabled and concatenates the
// content chunks. Any error or exception event aborts the read.
func (c *BackboardClient) Stream(ctx context.Context, req domain.ChatRequest) (string, error) {
	raw, err := json.Marshal(addMessageRequest{
		Content:     req.Content,
		LLMProvider: req.Provider,
		ModelName:   req.Model,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal stream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/threads/"+req.ThreadID+"/messages", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("create stream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("stream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("stream API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var event struct {
			Type    string `json:"type"`
			Content string `json:"content"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		switch event.Type {
		case "content_streaming":
			sb.WriteString(event.Content)
		case "error", "exception":
			return "", fmt.Errorf("stream error event: %s", event.Message)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}

	return strings.TrimSpace(sb.String()), nil
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *BackboardClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error.Code == streamingRequiredCode {
			return nil, ErrStreamingOnly
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// extractText is the single normalization boundary for provider
// response shapes: whichever of content/text/message carries a
// non-empty string wins.
func extractText(payload map[string]any) string {
	for _, key := range []string{"content", "text", "message"} {
		if v, ok := payload[key].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}
