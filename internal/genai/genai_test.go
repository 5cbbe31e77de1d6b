package genai

import (
	"testing"
	"time"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNewClientFallsBackToEnvKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.model != DefaultModel {
		t.Errorf("expected default model, got %q", client.model)
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", client.timeout)
	}
	if client.maxRetries != DefaultMaxRetries {
		t.Errorf("expected default retries, got %d", client.maxRetries)
	}
}

func TestNewClientAppliesOptions(t *testing.T) {
	client, err := NewClient(
		WithAPIKey("sk-test"),
		WithModel("gpt-4o"),
		WithTimeout(5*time.Second),
		WithMaxRetries(7),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.model != "gpt-4o" {
		t.Errorf("model option not applied, got %q", client.model)
	}
	if client.timeout != 5*time.Second {
		t.Errorf("timeout option not applied, got %v", client.timeout)
	}
	if client.maxRetries != 7 {
		t.Errorf("retries option not applied, got %d", client.maxRetries)
	}
}
