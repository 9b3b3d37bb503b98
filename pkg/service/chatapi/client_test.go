package chatapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
	"github.com/secmon-lab/termfolio/pkg/domain/types"
	"github.com/secmon-lab/termfolio/pkg/service/chatapi"
)

func TestParseEventLine(t *testing.T) {
	t.Run("chunk event", func(t *testing.T) {
		ev, ok := chatapi.ParseEventLine(`data: {"id":"m1","type":"chunk","content":"Hello "}`)
		gt.Bool(t, ok).True()
		gt.Value(t, ev.ID).Equal(model.ChatMessageID("m1"))
		gt.Value(t, ev.Type).Equal(types.StreamEventChunk)
		gt.Value(t, ev.Content).Equal("Hello ")
	})

	t.Run("bare error payload is an error event", func(t *testing.T) {
		ev, ok := chatapi.ParseEventLine(`data: {"error":"Invalid request: message is required"}`)
		gt.Bool(t, ok).True()
		gt.Value(t, ev.Type).Equal(types.StreamEventError)
		gt.Value(t, ev.Error).Equal("Invalid request: message is required")
	})

	t.Run("rejects non data lines and bad JSON", func(t *testing.T) {
		for _, line := range []string{"", ": comment", "event: x", "data:", "data: {", `data: {"type":"bogus"}`} {
			_, ok := chatapi.ParseEventLine(line)
			gt.Bool(t, ok).False()
		}
	})
}

func TestParseEvents(t *testing.T) {
	chunk := "data: {\"id\":\"a\",\"type\":\"start\"}\n\n" +
		"data: {\"id\":\"a\",\"type\":\"chunk\",\"content\":\"Hi\"}\n\n" +
		"garbage\n\n" +
		"data: {\"id\":\"a\",\"type\":\"end\"}\n\n"

	events := chatapi.ParseEvents(chunk)
	gt.Array(t, events).Length(3)
	gt.Value(t, events[0].Type).Equal(types.StreamEventStart)
	gt.Value(t, events[1].Content).Equal("Hi")
	gt.Value(t, events[2].Type).Equal(types.StreamEventEnd)
}

func TestClient_Send(t *testing.T) {
	t.Run("returns assistant message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.URL.Path).Equal("/api/chat")
			gt.Value(t, r.Header.Get("Content-Type")).Equal("application/json")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"message":{"id":"r1","text":"Hello!","isUser":false,"timestamp":"2026-01-01T00:00:00Z"}}`)
		}))
		defer srv.Close()

		msg, err := chatapi.New(srv.URL).Send(context.Background(), "Hi", nil)
		gt.NoError(t, err).Required()
		gt.Value(t, msg.Text).Equal("Hello!")
		gt.Value(t, msg.ID).Equal(model.ChatMessageID("r1"))
	})

	t.Run("non success status is an Error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"Failed to process request"}`)
		}))
		defer srv.Close()

		_, err := chatapi.New(srv.URL).Send(context.Background(), "Hi", nil)
		var apiErr *chatapi.Error
		gt.Bool(t, errors.As(err, &apiErr)).True()
		gt.Value(t, apiErr.StatusCode).Equal(http.StatusInternalServerError)
		gt.Value(t, apiErr.Message).Equal("Failed to process request")
		gt.Value(t, err.Error()).Equal("Chat API error: 500 Internal Server Error")
	})
}

func collect(t *testing.T, c *chatapi.Client) ([]*model.StreamEvent, error) {
	t.Helper()
	var events []*model.StreamEvent
	for ev, err := range c.Stream(context.Background(), "Hi", nil) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func TestClient_Stream(t *testing.T) {
	t.Run("yields events until end", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Value(t, r.URL.Path).Equal("/api/chat/streaming")
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"id\":\"a\",\"type\":\"start\"}\n\n")
			fmt.Fprint(w, "data: {\"id\":\"a\",\"type\":\"chunk\",\"content\":\"Hello \"}\n\n")
			fmt.Fprint(w, "data: {\"id\":\"a\",\"type\":\"chunk\",\"content\":\"world\"}\n\n")
			fmt.Fprint(w, "data: {\"id\":\"a\",\"type\":\"end\"}\n\n")
		}))
		defer srv.Close()

		events, err := collect(t, chatapi.New(srv.URL))
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(4)
		gt.Value(t, events[3].Type).Equal(types.StreamEventEnd)
	})

	t.Run("bad request carries the server message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "data: {\"error\":\"Invalid request: message is required\"}\n\n")
		}))
		defer srv.Close()

		events, err := collect(t, chatapi.New(srv.URL))
		gt.Array(t, events).Length(0)
		var apiErr *chatapi.Error
		gt.Bool(t, errors.As(err, &apiErr)).True()
		gt.Value(t, apiErr.StatusCode).Equal(http.StatusBadRequest)
		gt.Value(t, apiErr.Message).Equal("Invalid request: message is required")
	})

	t.Run("truncated stream is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "data: {\"id\":\"a\",\"type\":\"start\"}\n\n")
		}))
		defer srv.Close()

		events, err := collect(t, chatapi.New(srv.URL))
		gt.Array(t, events).Length(1)
		gt.Value(t, err).NotNil()
	})
}
