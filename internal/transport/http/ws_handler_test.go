package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"character-quiz-bot/internal/app"
	"character-quiz-bot/internal/domain"
	"character-quiz-bot/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(t, app.NewContentStore(sampleQuestions(), sampleCatalog()))))
	defer server.Close()

	conn := dial(t, server, "u1")
	defer conn.Close()

	send(t, conn, map[string]any{"type": "start"})
	typ, payload := readNext(conn, t, "question")
	if payload["index"] != float64(0) || payload["total"] != float64(2) || payload["prompt"] != "Question 1" {
		t.Fatalf("unexpected question payload %v (%s)", payload, typ)
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"option": 1}})
	_, payload = readNext(conn, t, "question")
	if payload["index"] != float64(1) {
		t.Fatalf("expected second question, got %v", payload)
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"option": 1}})
	_, payload = readNext(conn, t, "result")
	if payload["outcome"] != "B" || payload["name"] != "Beta" {
		t.Fatalf("unexpected result payload %v", payload)
	}
}

func TestWebSocketInvalidChoiceReprompts(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(t, app.NewContentStore(sampleQuestions(), sampleCatalog()))))
	defer server.Close()

	conn := dial(t, server, "u1")
	defer conn.Close()

	send(t, conn, map[string]any{"type": "start"})
	readNext(conn, t, "question")

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{"option": 9}})
	_, payload := readNext(conn, t, "error")
	if payload["kind"] != string(domain.KindInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", payload)
	}
	_, payload = readNext(conn, t, "question")
	if payload["index"] != float64(0) {
		t.Fatalf("expected re-prompt of first question, got %v", payload)
	}

	send(t, conn, map[string]any{"type": "answer", "payload": map[string]any{}})
	_, payload = readNext(conn, t, "error")
	if payload["kind"] != string(domain.KindInvalidChoice) {
		t.Fatalf("expected invalid choice for missing option, got %v", payload)
	}

	send(t, conn, map[string]any{"type": "dance"})
	_, payload = readNext(conn, t, "error")
	if payload["kind"] != string(domain.KindUnsupportedAction) {
		t.Fatalf("expected unsupported action for unknown type, got %v", payload)
	}
}

func TestWebSocketUnknownTypeIsNotLoggedAsInternal(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)
	engine := app.NewEngine(app.NewContentStore(sampleQuestions(), sampleCatalog()), memory.NewSessionStore(), app.WithLogger(logger))
	server := httptest.NewServer(NewRouter(app.NewQuizService(engine)))
	defer server.Close()

	conn := dial(t, server, "u1")
	defer conn.Close()

	send(t, conn, map[string]any{"type": "dance"})
	readNext(conn, t, "error")

	// the session is still usable afterwards
	send(t, conn, map[string]any{"type": "start"})
	readNext(conn, t, "question")

	if logs.Len() != 0 {
		t.Fatalf("expected client junk to stay out of the log, got %q", logs.String())
	}
}

func TestWebSocketRequiresUser(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(t, app.NewContentStore(sampleQuestions(), sampleCatalog()))))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthAndContentStatus(t *testing.T) {
	server := httptest.NewServer(NewRouter(newTestService(t, app.NewContentStore(sampleQuestions(), sampleCatalog()))))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var status contentResponse
	getJSON(t, server.URL+"/content", http.StatusOK, &status)
	if !status.Available || status.Questions != 2 || len(status.Outcomes) != 2 || status.Outcomes[0] != "A" {
		t.Fatalf("unexpected content status %+v", status)
	}
}

func TestContentStatusDegraded(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)
	content := app.LoadContent(context.Background(), memory.NewFailingContentLoader(errors.New("no file")), logger)
	server := httptest.NewServer(NewRouter(newTestService(t, content)))
	defer server.Close()

	var status contentResponse
	getJSON(t, server.URL+"/content", http.StatusServiceUnavailable, &status)
	if status.Available || status.Error == "" {
		t.Fatalf("expected degraded status, got %+v", status)
	}
}

func newTestService(t *testing.T, content *app.ContentStore) *app.QuizService {
	t.Helper()
	logger := log.New(&bytes.Buffer{}, "", 0)
	engine := app.NewEngine(content, memory.NewSessionStore(), app.WithLogger(logger))
	return app.NewQuizService(engine)
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("expected %d from %s, got %d", wantStatus, url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func sampleCatalog() *domain.Catalog {
	return domain.NewCatalog(
		domain.Outcome{Key: "A", Name: "Alpha", Description: "first"},
		domain.Outcome{Key: "B", Name: "Beta", Description: "second"},
	)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Prompt: "Question 1", Options: []domain.Option{
			domain.NewOption("to A", domain.Delta{Outcome: "A", Points: 1}),
			domain.NewOption("to B", domain.Delta{Outcome: "B", Points: 1}),
		}},
		{Prompt: "Question 2", Options: []domain.Option{
			domain.NewOption("to A", domain.Delta{Outcome: "A", Points: 1}),
			domain.NewOption("to B", domain.Delta{Outcome: "B", Points: 1}),
		}},
	}
}
