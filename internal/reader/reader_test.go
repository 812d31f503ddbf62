package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/https://page.example") {
			t.Errorf("Target URL should be appended to the base URL, got path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer reader-key" {
			t.Errorf("Expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte("Readable page text."))
	}))
	defer server.Close()

	client := NewClient(server.URL, "reader-key", "", 10*time.Second)

	text, err := client.Extract(context.Background(), "https://page.example/article")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "Readable page text." {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestClient_Extract_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "", time.Second)

	_, err := client.Extract(context.Background(), "https://page.example")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
}

func TestClient_Extract_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("   \n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "", time.Second)

	_, err := client.Extract(context.Background(), "https://page.example")
	if err == nil {
		t.Fatal("Expected error for blank body")
	}
}

func TestClient_Extract_EmptyURL(t *testing.T) {
	client := NewClient("https://example.com", "key", "", time.Second)

	_, err := client.Extract(context.Background(), "  ")
	if err == nil {
		t.Fatal("Expected error for empty page url")
	}
}

func TestClient_HasAPIKey(t *testing.T) {
	if NewClient("", "", "", 0).HasAPIKey() {
		t.Error("HasAPIKey should be false without a key")
	}
	if !NewClient("", "key", "", 0).HasAPIKey() {
		t.Error("HasAPIKey should be true with a key")
	}
}
