package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string error", `{"error":"rate limited"}`, "rate limited"},
		{"nested message", `{"error":{"message":"bad key","type":"auth"}}`, "bad key"},
		{"raw payload", `{"error":{"code":1},"raw":{"choices":[]}}`, `{"choices":[]}`},
		{"whole body", `{"error":{"code":1}}`, `{"error":{"code":1}}`},
		{"not json", "upstream exploded", "upstream exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveErrorMessage(500, []byte(tt.body)); got != tt.want {
				t.Fatalf("ResolveErrorMessage = %q, want %q", got, tt.want)
			}
		})
	}
	if got := ResolveErrorMessage(502, nil); !strings.Contains(got, "502") {
		t.Fatalf("empty body message = %q", got)
	}
}

func TestClientAnalyze(t *testing.T) {
	var gotAuth, gotImage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotImage = req.Image
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":"hello"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	text, err := c.Analyze(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if text != "hello" {
		t.Fatalf("text = %q", text)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotImage != "data:image/png;base64,AQID" {
		t.Fatalf("image = %q", gotImage)
	}
}

func TestClientNoCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected Authorization %q", h)
		}
		_, _ = w.Write([]byte(`{"content":""}`))
	}))
	defer srv.Close()
	text, err := NewClient(srv.URL, "").Analyze(context.Background(), nil)
	if err != nil || text != "" {
		t.Fatalf("Analyze = %q, %v", text, err)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field with 200", http.StatusOK, `{"error":"rate limited"}`, "rate limited"},
		{"status 429", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, "slow down"},
		{"status 500 raw", http.StatusInternalServerError, `{"error":"Unexpected response format from OpenAI","raw":{}}`, "Unexpected response format from OpenAI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			_, err := NewClient(srv.URL, "").Analyze(context.Background(), nil)
			var se *ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("error %v is not a ServiceError", err)
			}
			if err.Error() != tt.want {
				t.Fatalf("message = %q, want %q", err.Error(), tt.want)
			}
			if se.Status != tt.status {
				t.Fatalf("status = %d, want %d", se.Status, tt.status)
			}
		})
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	_, err := NewClient(url, "").Analyze(context.Background(), nil)
	var se *ServiceError
	if !errors.As(err, &se) || se.Err == nil {
		t.Fatalf("expected transport ServiceError, got %v", err)
	}
}
