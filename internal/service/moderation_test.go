package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meme-factory/internal/domain"
)

func TestSafetyGate_Bypass(t *testing.T) {
	gate := NewSafetyGate(&ModerationClientConfig{Bypass: true})

	v := gate.Moderate(context.Background(), "kill yourself")
	if v.Flagged || !v.Safe {
		t.Errorf("bypass gate should clear everything, got %+v", v)
	}
}

func TestSafetyGate_RemoteVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse(`{"safe": false, "categories": ["hate"]}`)))
	}))
	defer srv.Close()

	gate := NewSafetyGate(&ModerationClientConfig{
		Model:   "test-model",
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})

	v := gate.Moderate(context.Background(), "some text")
	if !v.Flagged || v.Safe {
		t.Fatalf("expected flagged verdict, got %+v", v)
	}
	if len(v.Categories) != 1 || v.Categories[0] != "hate" {
		t.Errorf("expected remote categories, got %v", v.Categories)
	}
}

func TestSafetyGate_KeywordFallbackOnRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gate := NewSafetyGate(&ModerationClientConfig{
		Model:   "test-model",
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})

	flagged := gate.Moderate(context.Background(), "just go kill yourself already")
	if !flagged.Flagged {
		t.Error("denylist hit should be flagged by fallback")
	}
	if len(flagged.Categories) != 1 || flagged.Categories[0] != domain.KeywordFallbackCategory {
		t.Errorf("fallback verdict should carry the sentinel category, got %v", flagged.Categories)
	}

	clean := gate.Moderate(context.Background(), "cats wearing tiny hats")
	if clean.Flagged || !clean.Safe {
		t.Errorf("clean text should pass the fallback, got %+v", clean)
	}
}

func TestKeywordScan_CaseInsensitive(t *testing.T) {
	if v := keywordScan("NaZi propaganda"); !v.Flagged {
		t.Error("matching should be case-insensitive")
	}
}

func TestModerateAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gate := NewSafetyGate(&ModerationClientConfig{
		Model:   "test-model",
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})

	if !gate.ModerateAll(context.Background(), []string{"cats", "dogs"}) {
		t.Error("all clean texts should pass")
	}
	if gate.ModerateAll(context.Background(), []string{"cats", "nazi dogs"}) {
		t.Error("one flagged text should fail the batch")
	}
}
