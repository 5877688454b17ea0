package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizhub-service/internal/app"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	quiz := env.createQuiz(t, alice.Token, 2)

	rec := env.do(t, http.MethodPost, "/api/attempts", alice.Token, map[string]string{"quizId": quiz.ID})
	snap := decode[app.AttemptSnapshot](t, rec)

	server := httptest.NewServer(env.router)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/attempts/" + snap.ID + "?token=" + alice.Token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the snapshot event first.
	readNext(t, conn, app.EventSnapshot)

	if err := conn.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	msg := readNext(t, conn, "error")
	if msg.Payload["code"] != "not_answered" {
		t.Fatalf("expected not_answered, got %v", msg.Payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "select", "payload": map[string]int{"option": 2}}); err != nil {
		t.Fatalf("write select: %v", err)
	}
	msg = readNext(t, conn, app.EventAnswered)
	if msg.Payload["state"] != string(app.StateAnswered) {
		t.Fatalf("expected answered state, got %v", msg.Payload["state"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	readNext(t, conn, app.EventFinished)
	msg = readNext(t, conn, app.EventSubmitted)
	result, _ := msg.Payload["result"].(map[string]any)
	if result == nil || result["score"] != float64(10) {
		t.Fatalf("expected score 10, got %v", msg.Payload["result"])
	}
}

func TestWebSocketRejectsForeignAttempt(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	quiz := env.createQuiz(t, alice.Token, 0)
	snap := decode[app.AttemptSnapshot](t, env.do(t, http.MethodPost, "/api/attempts", alice.Token, map[string]string{"quizId": quiz.ID}))

	server := httptest.NewServer(env.router)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/attempts/" + snap.ID + "?token=" + bob.Token
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %v", resp)
	}
}

type wsMessage struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// readNext skips events until one of the expected type arrives; ticks may interleave.
func readNext(t *testing.T, conn *websocket.Conn, expect string) wsMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg wsMessage
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", expect, err)
		}
		if msg.Type == expect {
			return msg
		}
	}
}
