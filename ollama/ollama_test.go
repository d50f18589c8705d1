package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zombar/painscope/models"
	"github.com/zombar/painscope/prompt"
)

func TestClassifySendsGenerateRequest(t *testing.T) {
	var got models.OllamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(models.OllamaResponse{
			Model:    got.Model,
			Response: `{"is_pain_point": true}`,
			Done:     true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3.1:8b", prompt.NewRenderer(""))

	raw, err := client.Classify(context.Background(), "MRT delays", "Stuck at Jurong East", "reddit/r/singapore")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if raw != `{"is_pain_point": true}` {
		t.Errorf("Unexpected reply: %q", raw)
	}

	if got.Model != "llama3.1:8b" {
		t.Errorf("Unexpected model: %s", got.Model)
	}
	if got.Stream {
		t.Error("Expected streaming disabled")
	}
	if got.Options == nil {
		t.Fatal("Expected sampling options set")
	}
	if got.Options.Temperature != 0.3 {
		t.Errorf("Unexpected temperature: %v", got.Options.Temperature)
	}
	if got.Options.NumPredict != 500 {
		t.Errorf("Unexpected num_predict: %d", got.Options.NumPredict)
	}
	if !strings.Contains(got.Prompt, "MRT delays") {
		t.Error("Expected prompt to contain the post title")
	}
	if !strings.Contains(got.Prompt, "Stuck at Jurong East") {
		t.Error("Expected prompt to contain the post content")
	}
}

func TestClassifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "missing:model", nil)

	_, err := client.Classify(context.Background(), "title", "content", "source")
	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status code in error, got %v", err)
	}
}

func TestClassifyContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Classify(ctx, "t", "c", "s"); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", "", nil)

	if client.baseURL != DefaultBaseURL {
		t.Errorf("Unexpected base URL: %s", client.baseURL)
	}
	if client.model != DefaultModel {
		t.Errorf("Unexpected model: %s", client.model)
	}
	if _, ok := client.httpClient.Transport.(*otelhttp.Transport); !ok {
		t.Error("Expected instrumented HTTP transport")
	}
}
