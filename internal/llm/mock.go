package llm

import (
	"context"
	"fmt"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// MockChatClient is a configurable chat client for testing. Complete
// pops CompleteResponses in order, repeating the last one when
// exhausted; set CompleteErr to fail every call (ErrStreamingOnly makes
// callers fall back to Stream).
type MockChatClient struct {
	CompleteResponses []string
	CompleteErr       error
	StreamResponse    string
	StreamErr         error

	// Call tracking for assertions
	CompleteCalls     []domain.ChatRequest
	StreamCalls       []domain.ChatRequest
	AssistantsCreated int
	ThreadsCreated    int
}

func NewMockChatClient() *MockChatClient {
	return &MockChatClient{
		CompleteResponses: []string{"{}"},
	}
}

func (c *MockChatClient) CreateAssistant(ctx context.Context, name, description string) (string, error) {
	c.AssistantsCreated++
	return fmt.Sprintf("asst_mock_%d", c.AssistantsCreated), nil
}

func (c *MockChatClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	c.ThreadsCreated++
	return fmt.Sprintf("thread_mock_%d", c.ThreadsCreated), nil
}

func (c *MockChatClient) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	c.CompleteCalls = append(c.CompleteCalls, req)
	if c.CompleteErr != nil {
		return "", c.CompleteErr
	}
	if len(c.CompleteResponses) == 0 {
		return "", nil
	}
	resp := c.CompleteResponses[0]
	if len(c.CompleteResponses) > 1 {
		c.CompleteResponses = c.CompleteResponses[1:]
	}
	return resp, nil
}

func (c *MockChatClient) Stream(ctx context.Context, req domain.ChatRequest) (string, error) {
	c.StreamCalls = append(c.StreamCalls, req)
	if c.StreamErr != nil {
		return "", c.StreamErr
	}
	return c.StreamResponse, nil
}

// ProviderCalls counts every outbound invocation, streaming or not.
func (c *MockChatClient) ProviderCalls() int {
	return len(c.CompleteCalls) + len(c.StreamCalls)
}
