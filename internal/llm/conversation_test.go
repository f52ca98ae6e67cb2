package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newStubServer(t *testing.T, reply string, capture *[]ChatMessage) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req struct {
			Messages []ChatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if capture != nil {
			*capture = req.Messages
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: url, Model: "test-model"})
}

func TestClientComplete(t *testing.T) {
	srv := newStubServer(t, "Revenue looks healthy.", nil)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), []ChatMessage{
		{Role: "user", Content: "How is revenue?"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Content != "Revenue looks healthy." {
		t.Errorf("content = %q", got.Content)
	}
	if got.TokensUsed != 42 {
		t.Errorf("tokens = %d, want 42", got.TokensUsed)
	}
}

func TestClientCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model not found"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error = %v, want API error message surfaced", err)
	}
}

func TestConversationsChat(t *testing.T) {
	var captured []ChatMessage
	srv := newStubServer(t, "Hello!", &captured)
	defer srv.Close()

	conv := NewConversations(newTestClient(srv.URL))

	resp, err := conv.Chat(context.Background(), "", "Hi", "", "")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a generated session ID")
	}
	if resp.Message != "Hello!" {
		t.Errorf("message = %q", resp.Message)
	}

	// System prompt first, then the user turn.
	if len(captured) != 2 {
		t.Fatalf("messages sent = %d, want 2", len(captured))
	}
	if captured[0].Role != "system" {
		t.Errorf("first role = %q, want system", captured[0].Role)
	}
	if captured[1].Content != "Hi" {
		t.Errorf("user content = %q", captured[1].Content)
	}

	history := conv.History(resp.SessionID)
	if len(history) != 2 {
		t.Fatalf("history = %d messages, want 2", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Errorf("history roles = %q/%q", history[0].Role, history[1].Role)
	}
}

func TestConversationsHistoryReplay(t *testing.T) {
	var captured []ChatMessage
	srv := newStubServer(t, "Noted.", &captured)
	defer srv.Close()

	conv := NewConversations(newTestClient(srv.URL))

	first, err := conv.Chat(context.Background(), "s1", "First question", "", "")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, err := conv.Chat(context.Background(), first.SessionID, "Second question", "", ""); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	// Second call replays the first exchange: system + 2 history + user.
	if len(captured) != 4 {
		t.Fatalf("messages sent = %d, want 4", len(captured))
	}
	if captured[1].Content != "First question" || captured[2].Content != "Noted." {
		t.Errorf("history not replayed: %q / %q", captured[1].Content, captured[2].Content)
	}
}

func TestConversationsContextInjection(t *testing.T) {
	var captured []ChatMessage
	srv := newStubServer(t, "ok", &captured)
	defer srv.Close()

	conv := NewConversations(newTestClient(srv.URL))
	conv.UpdateContext("s1", "**Rows**: 12", "**Calculated Metrics**: mrr")

	if _, err := conv.Chat(context.Background(), "s1", "What do you see?", "", ""); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	system := captured[0].Content
	if !strings.Contains(system, "**Rows**: 12") {
		t.Error("data summary missing from system prompt")
	}
	if !strings.Contains(system, "mrr") {
		t.Error("metrics summary missing from system prompt")
	}
}

func TestConversationsClearSession(t *testing.T) {
	srv := newStubServer(t, "ok", nil)
	defer srv.Close()

	conv := NewConversations(newTestClient(srv.URL))
	if conv.ClearSession("missing") {
		t.Error("clearing an unknown session should report false")
	}

	resp, err := conv.Chat(context.Background(), "s1", "hi", "", "")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !conv.ClearSession(resp.SessionID) {
		t.Error("clearing an existing session should report true")
	}
	if got := conv.History(resp.SessionID); got != nil {
		t.Errorf("history after clear = %v, want nil", got)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Run("NoContext", func(t *testing.T) {
		got := BuildSystemPrompt("", "", "")
		if !strings.Contains(got, "No data has been uploaded yet") {
			t.Error("expected the no-data context block")
		}
	})

	t.Run("WithContext", func(t *testing.T) {
		got := BuildSystemPrompt("rows: 10", "", "User: hi")
		if !strings.Contains(got, "rows: 10") {
			t.Error("data summary missing")
		}
		if !strings.Contains(got, "No metrics calculated yet.") {
			t.Error("metrics placeholder missing")
		}
		if !strings.Contains(got, "User: hi") {
			t.Error("conversation history missing")
		}
	})
}
