package config

import (
	"os"
	"testing"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		OpenAI: OpenAIConfig{APIKey: "test-key"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
		OpenAI: OpenAIConfig{APIKey: "test-key"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing openai api key")
	}
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		OpenAI: OpenAIConfig{APIKey: "test-key", RequestsPerSecond: -1},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative requests_per_second")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("expected ChatModel=gpt-4o-mini, got %q", cfg.OpenAI.ChatModel)
	}
	if cfg.Search.TopK != 50 {
		t.Errorf("expected TopK=50, got %d", cfg.Search.TopK)
	}
	if cfg.Search.KeyPrefix != "shopsense:product:" {
		t.Errorf("expected KeyPrefix='shopsense:product:', got %q", cfg.Search.KeyPrefix)
	}
	if cfg.Pipeline.ReasoningBatchSize != 5 {
		t.Errorf("expected ReasoningBatchSize=5, got %d", cfg.Pipeline.ReasoningBatchSize)
	}
	if cfg.Pipeline.RerankPromptLimit != 20 {
		t.Errorf("expected RerankPromptLimit=20, got %d", cfg.Pipeline.RerankPromptLimit)
	}
	if cfg.Pipeline.CleanupIntervalSec != 600 {
		t.Errorf("expected CleanupIntervalSec=600, got %d", cfg.Pipeline.CleanupIntervalSec)
	}
	if cfg.Pipeline.ProgressRetentionSec != 3600 {
		t.Errorf("expected ProgressRetentionSec=3600, got %d", cfg.Pipeline.ProgressRetentionSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Search:   SearchConfig{IndexName: "idx:custom", KeyPrefix: "custom:", TopK: 10},
		Pipeline: PipelineConfig{ReasoningBatchSize: 8, RerankPromptLimit: 30, CleanupIntervalSec: 60, ProgressRetentionSec: 120},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Search.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Search.KeyPrefix)
	}
	if cfg.Pipeline.ReasoningBatchSize != 8 {
		t.Errorf("expected ReasoningBatchSize=8, got %d", cfg.Pipeline.ReasoningBatchSize)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("SHOPSENSE_TEST_KEY", "secret")
	defer os.Unsetenv("SHOPSENSE_TEST_KEY")

	in := []byte("api_key: ${SHOPSENSE_TEST_KEY}\nbase_url: ${SHOPSENSE_TEST_URL:-https://api.example.com/v1}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nbase_url: https://api.example.com/v1\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}
