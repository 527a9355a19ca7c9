package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"ok":true}`))
		case "/missing":
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, time.Second)

	body, err := GetJSON(context.Background(), client, srv.URL+"/ok")
	if err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}

	_, err = GetJSON(context.Background(), client, srv.URL+"/missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !IsStatus(err, http.StatusNotFound) {
		t.Errorf("error %v should be a 404 StatusError", err)
	}
}

func TestGetJSONRejectsBadURL(t *testing.T) {
	client := NewClient(time.Second, time.Second)
	if _, err := GetJSON(context.Background(), client, "ftp://example.com/x"); err == nil {
		t.Error("expected error for non-HTTP URL")
	}
}

func TestGetJSONCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(5*time.Second, time.Second)
	if _, err := GetJSON(ctx, client, srv.URL); err == nil {
		t.Error("expected error for cancelled context")
	}
}
