package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_NoRetriesForConversation(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConfirmDelay())
	assert.Equal(t, 60*time.Second, cfg.TaskTimeout(TaskDraft))
}

func TestLoadConfig_NilViper(t *testing.T) {
	assert.Equal(t, DefaultConfig(), LoadConfig(nil))
}

func TestLoadConfig_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("llm.enabled", true)
	v.Set("llm.endpoint", "http://ollama:11434/")
	v.Set("llm.model", "qwen2.5")
	v.Set("llm.timeout_ms", 9000)
	v.Set("llm.draft_timeout_ms", 15000)
	v.Set("llm.max_retries", 2)
	v.Set("llm.confirm_delay_ms", 0)

	cfg := LoadConfig(v)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "http://ollama:11434", cfg.Endpoint)
	assert.Equal(t, "qwen2.5", cfg.Model)
	assert.Equal(t, 9*time.Second, cfg.TaskTimeout(TaskType("unknown")))
	assert.Equal(t, 15*time.Second, cfg.TaskTimeout(TaskDraft))
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Duration(0), cfg.ConfirmDelay())
}

func TestLoadConfig_OpenAIProviderDefaults(t *testing.T) {
	v := viper.New()
	v.Set("llm.provider", "OpenAI")
	v.Set("llm.api_key", "sk-test")

	cfg := LoadConfig(v)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Empty(t, cfg.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "sk-test", cfg.APIKey)
}

func TestLoadConfig_InvalidValuesIgnored(t *testing.T) {
	v := viper.New()
	v.Set("llm.provider", "carrier-pigeon")
	v.Set("llm.timeout_ms", -5)
	v.Set("llm.max_retries", -1)

	cfg := LoadConfig(v)

	def := DefaultConfig()
	assert.Equal(t, def.Provider, cfg.Provider)
	assert.Equal(t, def.TimeoutMs, cfg.TimeoutMs)
	assert.Equal(t, def.MaxRetries, cfg.MaxRetries)
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("COACHLAB_LLM_MODEL", "mistral")
	v := viper.New()
	v.SetEnvPrefix("COACHLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	assert.Equal(t, "mistral", LoadConfig(v).Model)
}
