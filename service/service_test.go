package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/voyage-finance/voyage-llm-forwarder/config"
	"github.com/voyage-finance/voyage-llm-forwarder/models"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, url string, timeout time.Duration) *Service {
	t.Helper()
	cfg := &config.Config{
		EndpointURL:  url,
		Timeout:      timeout,
		MaxNewTokens: config.DefaultMaxNewTokens,
		Temperature:  config.DefaultTemperature,
		TopP:         config.DefaultTopP,
	}
	return New(cfg, zap.NewNop())
}

func TestGenerate_Success(t *testing.T) {
	var got models.GenerationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(models.GenerationResult{GeneratedText: "hi there"})
	}))
	defer server.Close()

	s := newTestService(t, server.URL+"/generate", time.Second)
	out, err := s.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "hi there" {
		t.Errorf("got %q want %q", out, "hi there")
	}
	want := models.GenerationRequest{Prompt: "hello", MaxNewTokens: 512, Temperature: 0.7, TopP: 0.9}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}

func TestGenerate_PayloadFieldNames(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"generated_text":"ok"}`))
	}))
	defer server.Close()

	if _, err := newTestService(t, server.URL, time.Second).Generate(context.Background(), "p"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, k := range []string{"prompt", "max_new_tokens", "temperature", "top_p"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("payload missing %q: %v", k, raw)
		}
	}
}

func TestGenerate_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{"text":"nope"}`},
		{"empty field", `{"generated_text":""}`},
		{"not json", `<html>ok</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestService(t, server.URL, time.Second).Generate(context.Background(), "hello")
			var pe *RemoteProtocolError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *RemoteProtocolError", err)
			}
			if !strings.Contains(err.Error(), "did not return generated text") {
				t.Errorf("err = %q", err.Error())
			}
		})
	}
}

func TestGenerate_NonOK(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"string detail", http.StatusInternalServerError, `{"detail":"model not loaded"}`, "model not loaded"},
		{"list detail", http.StatusUnprocessableEntity, `{"detail": [{"loc": ["body","prompt"], "msg": "field required"}]}`, `[{"loc":["body","prompt"],"msg":"field required"}]`},
		{"raw body", http.StatusBadGateway, "upstream exploded\n", "upstream exploded"},
		{"empty body", http.StatusServiceUnavailable, "", "503 Service Unavailable"},
		{"null detail", http.StatusInternalServerError, `{"detail":null}`, `{"detail":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestService(t, server.URL, time.Second).Generate(context.Background(), "hello")
			var se *RemoteServiceError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *RemoteServiceError", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
			}
			if se.Connection() {
				t.Error("Connection() = true for an HTTP error")
			}
			if se.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", se.Detail, tt.wantDetail)
			}
			if !strings.Contains(err.Error(), tt.wantDetail) {
				t.Errorf("err = %q does not contain %q", err.Error(), tt.wantDetail)
			}
		})
	}
}

func TestGenerate_LongRawBodyIsTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	_, err := newTestService(t, server.URL, time.Second).Generate(context.Background(), "hello")
	var se *RemoteServiceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if len(se.Detail) != maxRawDetail+len("...") {
		t.Errorf("len(Detail) = %d", len(se.Detail))
	}
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	_, err = newTestService(t, "http://"+addr+"/generate", time.Second).Generate(context.Background(), "hello")
	var se *RemoteServiceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *RemoteServiceError", err)
	}
	if !se.Connection() {
		t.Error("Connection() = false for refused connection")
	}
	if !strings.HasPrefix(err.Error(), "Could not connect to the inference server") {
		t.Errorf("err = %q", err.Error())
	}
}

func TestGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestService(t, server.URL, 50*time.Millisecond).Generate(context.Background(), "hello")
	var se *RemoteServiceError
	if !errors.As(err, &se) || !se.Connection() {
		t.Fatalf("err = %v, want connection RemoteServiceError", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestGenerate_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("endpoint should not be called with a canceled context")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestService(t, server.URL, 0).Generate(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}
