package perplexity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sseServer(t *testing.T, events []string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") == "" {
			t.Error("missing q parameter")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			fmt.Fprintf(w, "data: %s\n\n", ev)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func deltaEvent(content string) string {
	return fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, content)
}

func TestAsk(t *testing.T) {
	server := sseServer(t, []string{
		`[{"title":"Paris","link":"https://a.example","displayLink":"a.example"}]`,
		deltaEvent("Paris is the capital "),
		deltaEvent("of France [1](https://a.example)."),
		"[DONE]",
	})

	var sourcesSeen []Source
	var streamed string
	answer, err := NewClient(server.URL).Ask(context.Background(), "capital of France", Events{
		OnSources: func(s []Source) { sourcesSeen = s },
		OnDelta:   func(text string) { streamed += text },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sourcesSeen) != 1 || sourcesSeen[0].Title != "Paris" {
		t.Errorf("sources = %+v", sourcesSeen)
	}
	want := "Paris is the capital of France [1](https://a.example)."
	if answer.Text != want {
		t.Errorf("answer = %q, want %q", answer.Text, want)
	}
	if streamed != answer.Text {
		t.Errorf("streamed %q != assembled %q: trailing fragment lost", streamed, answer.Text)
	}

	citations := Citations(answer.Text, answer.Sources)
	if len(citations) != 1 || !citations[0].Valid {
		t.Errorf("citations = %+v", citations)
	}
}

func TestAsk_SourcesBeforeDeltas(t *testing.T) {
	server := sseServer(t, []string{
		`[{"title":"t","link":"https://a.example"}]`,
		deltaEvent("hello world one two three"),
		"[DONE]",
	})

	sawSources := false
	_, err := NewClient(server.URL).Ask(context.Background(), "q", Events{
		OnSources: func([]Source) { sawSources = true },
		OnDelta: func(string) {
			if !sawSources {
				t.Error("delta delivered before sources")
			}
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAsk_EmptySources(t *testing.T) {
	insufficient := "The search results don't contain enough information to answer this query."
	server := sseServer(t, []string{"[]", deltaEvent(insufficient), "[DONE]"})

	answer, err := NewClient(server.URL).Ask(context.Background(), "q", Events{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Errorf("sources = %#v, want empty non-nil", answer.Sources)
	}
	if answer.Text != insufficient {
		t.Errorf("answer = %q", answer.Text)
	}
}

func TestAsk_MalformedEventKeepsPartialText(t *testing.T) {
	server := sseServer(t, []string{
		`[{"title":"t","link":"https://a.example"}]`,
		deltaEvent("partial answer text here okay"),
		`{broken json`,
	})

	answer, err := NewClient(server.URL).Ask(context.Background(), "q", Events{})
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if answer == nil || answer.Text == "" {
		t.Error("already-received text must be kept on protocol failure")
	}
}

func TestAsk_TruncatedStreamIsAnError(t *testing.T) {
	server := sseServer(t, []string{
		`[]`,
		deltaEvent("cut off"),
		// no [DONE]
	})

	answer, err := NewClient(server.URL).Ask(context.Background(), "q", Events{})
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol for missing terminal marker, got %v", err)
	}
	if answer.Text != "cut off" {
		t.Errorf("partial text = %q", answer.Text)
	}
}

func TestAsk_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "No query provided"}`)
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(server.URL).Ask(context.Background(), "q", Events{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "No query provided") {
		t.Errorf("error should carry the server message, got %v", err)
	}
}

func TestAsk_EmptyQueryRejectedLocally(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	if _, err := NewClient(server.URL).Ask(context.Background(), "  ", Events{}); err == nil {
		t.Fatal("expected error for empty query")
	}
	if called {
		t.Error("no request expected for an empty query")
	}
}

func TestAsk_NoChunking(t *testing.T) {
	server := sseServer(t, []string{
		`[]`,
		deltaEvent("a"),
		deltaEvent("b"),
		deltaEvent("c"),
		"[DONE]",
	})

	var deltas []string
	_, err := NewClient(server.URL, WithChunking(false)).Ask(context.Background(), "q", Events{
		OnDelta: func(text string) { deltas = append(deltas, text) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deltas) != 3 {
		t.Errorf("deltas = %v, want one per event", deltas)
	}
}
