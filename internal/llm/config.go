package llm

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	// TaskDraft is the curriculum drafting conversation.
	TaskDraft TaskType = "draft"
	// TaskPing is the availability probe.
	TaskPing TaskType = "ping"
)

// Provider selects the chat backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Enabled        bool
	LogCalls       bool
	Provider       Provider
	Endpoint       string
	Model          string
	APIKey         string
	TimeoutMs      int
	MaxRetries     int
	ConfirmDelayMs int
	Tasks          map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// LLM is disabled by default and conversational turns are not retried.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:        false,
		LogCalls:       false,
		Provider:       ProviderOllama,
		Endpoint:       "http://localhost:11434",
		Model:          "llama3.2",
		TimeoutMs:      10000,
		MaxRetries:     0,
		ConfirmDelayMs: 1500,
		Tasks: map[TaskType]TaskConfig{
			TaskDraft: {Temperature: 0.4, MaxTokens: 4096, TimeoutMs: 60000},
			TaskPing:  {Temperature: 0, MaxTokens: 1, TimeoutMs: 2000},
		},
	}
}

// LoadConfig reads the llm.* keys from v, falling back to defaults for any
// unset or invalid values. v is expected to carry the COACHLAB_ env binding.
func LoadConfig(v *viper.Viper) LLMConfig {
	cfg := DefaultConfig()
	if v == nil {
		return cfg
	}

	if v.IsSet("llm.enabled") {
		cfg.Enabled = v.GetBool("llm.enabled")
	}
	if v.IsSet("llm.log_calls") {
		cfg.LogCalls = v.GetBool("llm.log_calls")
	}
	if p := Provider(strings.ToLower(strings.TrimSpace(v.GetString("llm.provider")))); p == ProviderOllama || p == ProviderOpenAI {
		cfg.Provider = p
		if p == ProviderOpenAI {
			cfg.Endpoint = ""
			cfg.Model = "gpt-4o-mini"
		}
	}
	if s := v.GetString("llm.endpoint"); s != "" {
		cfg.Endpoint = strings.TrimRight(s, "/")
	}
	if s := v.GetString("llm.model"); s != "" {
		cfg.Model = s
	}
	if s := v.GetString("llm.api_key"); s != "" {
		cfg.APIKey = s
	}
	if n := v.GetInt("llm.timeout_ms"); n > 0 {
		cfg.TimeoutMs = n
	}
	if v.IsSet("llm.max_retries") {
		if n := v.GetInt("llm.max_retries"); n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v.IsSet("llm.confirm_delay_ms") {
		if n := v.GetInt("llm.confirm_delay_ms"); n >= 0 {
			cfg.ConfirmDelayMs = n
		}
	}
	if n := v.GetInt("llm.draft_timeout_ms"); n > 0 {
		tc := cfg.Tasks[TaskDraft]
		tc.TimeoutMs = n
		cfg.Tasks[TaskDraft] = tc
	}
	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) time.Duration {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return time.Duration(tc.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ConfirmDelay is how long a structure confirmation stays on screen before
// the drafting step completes.
func (c LLMConfig) ConfirmDelay() time.Duration {
	return time.Duration(c.ConfirmDelayMs) * time.Millisecond
}
