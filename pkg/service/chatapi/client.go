package chatapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/utils/safe"
)

// DefaultBaseURL is the address of a locally running termfolio server
const DefaultBaseURL = "http://localhost:8080"

// Error is a non-success response from the chat server
type Error struct {
	StatusCode int
	Status     string
	// Message is the server's {"error": ...} text, if any
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Chat API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client calls the termfolio chat endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// New creates a client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Message string               `json:"message"`
	History []*model.ChatMessage `json:"history"`
}

func (c *Client) post(ctx context.Context, path string, text string, history []*model.ChatMessage) (*http.Response, error) {
	if history == nil {
		history = []*model.ChatMessage{}
	}
	body, err := json.Marshal(chatRequest{Message: text, History: history})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chat request", goerr.V("path", path))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send chat request", goerr.V("path", path))
	}
	return resp, nil
}

// Send posts text with the prior history and returns the assistant message
func (c *Client) Send(ctx context.Context, text string, history []*model.ChatMessage) (*model.ChatMessage, error) {
	resp, err := c.post(ctx, "/api/chat", text, history)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read chat response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &Error{StatusCode: resp.StatusCode, Status: resp.Status}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Message = body.Error
		}
		return nil, apiErr
	}

	var body struct {
		Message *model.ChatMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat response")
	}
	if body.Message == nil {
		return nil, goerr.New("chat response has no message")
	}
	return body.Message, nil
}

// Stream posts text with the prior history to the streaming endpoint and
// yields events as they arrive. Iteration stops after the first terminal event
// or error.
func (c *Client) Stream(ctx context.Context, text string, history []*model.ChatMessage) iter.Seq2[*model.StreamEvent, error] {
	return func(yield func(*model.StreamEvent, error) bool) {
		resp, err := c.post(ctx, "/api/chat/streaming", text, history)
		if err != nil {
			yield(nil, err)
			return
		}
		defer safe.Close(ctx, resp.Body)

		var apiErr *Error
		if resp.StatusCode != http.StatusOK {
			apiErr = &Error{StatusCode: resp.StatusCode, Status: resp.Status}
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			event, ok := ParseEventLine(scanner.Text())
			if !ok {
				continue
			}
			if apiErr != nil {
				apiErr.Message = event.Error
				break
			}
			if !yield(event, nil) || event.Type.IsTerminal() {
				return
			}
		}

		if apiErr != nil {
			yield(nil, apiErr)
			return
		}
		if err := scanner.Err(); err != nil {
			yield(nil, goerr.Wrap(err, "failed to read event stream"))
			return
		}
		yield(nil, goerr.New("event stream ended without end event"))
	}
}

// ParseEventLine parses one "data: {...}" line. An event carrying only an
// error field is typed as an error event. Lines that are not data lines or
// do not hold valid JSON are rejected.
func ParseEventLine(line string) (*model.StreamEvent, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return nil, false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == "" {
		return nil, false
	}

	var event model.StreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, false
	}
	if event.Type == "" && event.Error != "" {
		event.Type = types.StreamEventError
	}
	if !event.Type.IsValid() {
		return nil, false
	}
	return &event, true
}

// ParseEvents parses a buffer holding one or more events separated by blank lines
func ParseEvents(chunk string) []*model.StreamEvent {
	var events []*model.StreamEvent
	for block := range strings.SplitSeq(chunk, "\n\n") {
		if event, ok := ParseEventLine(block); ok {
			events = append(events, event)
		}
	}
	return events
}
