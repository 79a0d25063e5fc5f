package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func geminiReply(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]int{"totalTokenCount": 42},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestComplete_ReturnsTrimmedReply(t *testing.T) {
	var calls atomic.Int32
	var gotReq genRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != "POST" || !strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash-lite:generateContent") {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(geminiReply("  Use compost and drip irrigation.\n")))
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "test-key", APIBase: srv.URL, Logger: testLogger()})
	reply, err := g.Complete(context.Background(), "How to grow strawberries?")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Use compost and drip irrigation." {
		t.Errorf("reply not trimmed: %q", reply)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 outbound call, got %d", calls.Load())
	}

	if gotReq.SystemInstruction == nil || len(gotReq.SystemInstruction.Parts) == 0 ||
		gotReq.SystemInstruction.Parts[0].Text != SystemInstruction {
		t.Error("request must carry the fixed system instruction")
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Parts[0].Text != "How to grow strawberries?" {
		t.Error("request must carry the user text unchanged")
	}
}

func TestCompleteImage_SingleMultimodalRequest(t *testing.T) {
	var calls atomic.Int32
	var gotReq genRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(geminiReply("Leaf blight, apply copper fungicide.")))
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	imageBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	reply, err := g.CompleteImage(context.Background(), imageBytes, "image/png", "What disease is this?")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Leaf blight, apply copper fungicide." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if calls.Load() != 1 {
		t.Fatalf("vision path must be one request, got %d", calls.Load())
	}

	parts := gotReq.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected caption + inline data parts, got %d", len(parts))
	}
	if parts[0].Text != "What disease is this?" {
		t.Errorf("caption not carried: %q", parts[0].Text)
	}
	if parts[1].InlineData == nil {
		t.Fatal("missing inline data part")
	}
	if parts[1].InlineData.MimeType != "image/png" {
		t.Errorf("mime type not carried: %s", parts[1].InlineData.MimeType)
	}
	if parts[1].InlineData.Data != base64.StdEncoding.EncodeToString(imageBytes) {
		t.Error("image bytes not base64 encoded correctly")
	}
}

func TestCompleteImage_DefaultMimeType(t *testing.T) {
	var gotReq genRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(geminiReply("ok")))
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	if _, err := g.CompleteImage(context.Background(), []byte{1}, "", "caption"); err != nil {
		t.Fatal(err)
	}
	if got := gotReq.Contents[0].Parts[1].InlineData.MimeType; got != "image/jpeg" {
		t.Errorf("unknown mime must default to image/jpeg, got %s", got)
	}
}

func TestComplete_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	if _, err := g.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestComplete_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "k", APIBase: srv.URL, Logger: testLogger()})
	if _, err := g.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on empty candidates")
	}
}

func TestHealthy_InvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	g := NewGemini(GeminiConfig{APIKey: "bad", APIBase: srv.URL, Logger: testLogger()})
	if err := g.Healthy(context.Background()); err == nil {
		t.Fatal("expected error for rejected key")
	}
}
