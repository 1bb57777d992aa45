package llm

import (
	"context"
	"time"
)

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// RequestTimeout bounds every provider HTTP call.
const RequestTimeout = 30 * time.Second

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Config configures a provider client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// Image is inline image data sent as a content part.
type Image struct {
	MIMEType string
	Data     []byte
}

// Part is one piece of message content: text or an image.
type Part struct {
	Image *Image
	Text  string
}

// Message is a role-tagged list of content parts.
type Message struct {
	Role  string
	Parts []Part
}

// Request is a single chat completion.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// Response contains the completion text.
type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// UserMessage builds a user message from text followed by any images.
func UserMessage(text string, images ...Image) Message {
	parts := []Part{{Text: text}}
	for i := range images {
		img := images[i]
		parts = append(parts, Part{Image: &img})
	}
	return Message{Role: RoleUser, Parts: parts}
}

// HasImage reports whether any part of msg is an image.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Image != nil {
			return true
		}
	}
	return false
}

// mimeType returns the image media type, defaulting to JPEG.
func (i Image) mimeType() string {
	if i.MIMEType == "" {
		return "image/jpeg"
	}
	return i.MIMEType
}

// maxTokens picks the per-request cap, falling back to the client default.
func maxTokens(req Request, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}
