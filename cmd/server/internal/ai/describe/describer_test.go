package describe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/genai"
)

func newTestClient(t *testing.T, reply string) (*genai.Client, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": reply}},
			},
		})
	}))
	return genai.NewClient(genai.Config{BaseURL: server.URL, Model: "test"}), server.Close
}

func TestGenAIDescriber(t *testing.T) {
	t.Run("successful description", func(t *testing.T) {
		client, closeFn := newTestClient(t, `{"description": "Rice husk is the protective outer layer of rice grains, commonly used as fuel or bedding."}`)
		defer closeFn()

		desc, err := NewGenAIDescriber(client).Describe(context.Background(), "Rice Husk")
		if err != nil {
			t.Fatalf("Describe() error = %v", err)
		}
		if desc == "" {
			t.Fatal("Describe() returned empty description")
		}
	})

	t.Run("empty description rejected", func(t *testing.T) {
		client, closeFn := newTestClient(t, `{"description": ""}`)
		defer closeFn()

		if _, err := NewGenAIDescriber(client).Describe(context.Background(), "Manure"); err == nil {
			t.Fatal("expected error for empty description, got nil")
		}
	})

	t.Run("malformed reply", func(t *testing.T) {
		client, closeFn := newTestClient(t, "not json at all")
		defer closeFn()

		if _, err := NewGenAIDescriber(client).Describe(context.Background(), "Manure"); err == nil {
			t.Fatal("expected parse error, got nil")
		}
	})
}

func TestDescriberFunc(t *testing.T) {
	called := false
	f := DescriberFunc(func(ctx context.Context, wasteType string) (string, error) {
		called = true
		return "desc of " + wasteType, nil
	})

	desc, err := f.Describe(context.Background(), "Corn Stover")
	if err != nil || desc != "desc of Corn Stover" || !called {
		t.Fatalf("DescriberFunc adapter misbehaved: desc=%q err=%v called=%v", desc, err, called)
	}
}
