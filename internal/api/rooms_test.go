package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Rooms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/collab/rooms" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"rooms": [{"code": "abc123", "name": "Team", "last_message": "hi"}]}`))
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL)
	rooms, err := client.Rooms(context.Background())
	if err != nil {
		t.Fatalf("Rooms failed: %v", err)
	}

	if len(rooms) != 1 || rooms[0].Code != "abc123" || rooms[0].Name != "Team" {
		t.Errorf("rooms = %+v", rooms)
	}
}

func TestClient_Room(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/collab/rooms/abc123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"room": {"code": "abc123", "name": "Team", "system_prompt": "be helpful"},
			"messages": [{"id": "m1", "role": "user", "content": "hi"}]
		}`))
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL)
	room, messages, err := client.Room(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Room failed: %v", err)
	}

	if room.SystemPrompt != "be helpful" {
		t.Errorf("SystemPrompt = %q", room.SystemPrompt)
	}
	if len(messages) != 1 || messages[0].ID != "m1" {
		t.Errorf("messages = %+v", messages)
	}
}

func TestClient_SendRoomMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/collab/rooms/abc123/message" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"message": {"id": "m2", "role": "user", "content": "hello room"}}`))
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL)
	msg, err := client.SendRoomMessage(context.Background(), "abc123", "hello room")
	if err != nil {
		t.Fatalf("SendRoomMessage failed: %v", err)
	}

	if msg.ID != "m2" || msg.Content != "hello room" {
		t.Errorf("msg = %+v", msg)
	}
}

func TestClient_OpenRoomStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		_, _ = io.WriteString(w, "data: {\"type\": \"ready\"}\n")
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL)
	body, err := client.OpenRoomStream(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("OpenRoomStream failed: %v", err)
	}
	defer func() { _ = body.Close() }()

	data, _ := io.ReadAll(body)
	if string(data) != "data: {\"type\": \"ready\"}\n" {
		t.Errorf("body = %q", data)
	}
}

func TestClient_SetSystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/collab/rooms/abc123/system-prompt" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"system_prompt": "short answers"}`))
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL)
	prompt, err := client.SetSystemPrompt(context.Background(), "abc123", "short answers")
	if err != nil {
		t.Fatalf("SetSystemPrompt failed: %v", err)
	}
	if prompt != "short answers" {
		t.Errorf("prompt = %q", prompt)
	}
}
