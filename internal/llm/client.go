package llm

import (
	"fmt"

	"github.com/shadowbrief/shadowbrief/internal/domain"
)

// Client kinds
const (
	ClientBackboard = "backboard"
	ClientMock      = "mock"
)

// NewChatClient creates a chat client based on the configured kind.
// A missing API key is a fatal configuration error raised here, before
// any call is attempted.
func NewChatClient(kind, apiKey, baseURL string) (domain.ChatClient, error) {
	switch kind {
	case ClientBackboard:
		if apiKey == "" {
			return nil, fmt.Errorf("BACKBOARD_API_KEY is required for the backboard client")
		}
		return NewBackboardClient(apiKey, baseURL), nil

	case ClientMock:
		return NewMockChatClient(), nil

	default:
		return nil, fmt.Errorf("unknown chat client: %s (valid options: backboard, mock)", kind)
	}
}
