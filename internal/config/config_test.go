package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "MINDSCOPE_API_KEY", "MINDSCOPE_DEFAULT_MODEL"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderOpenRouter, c.DefaultProvider)
	assert.Equal(t, 4028, c.MaxTokens)
	assert.Equal(t, ai.DefaultOllamaHost, c.OllamaHost)
	assert.Equal(t, summarizer.DefaultConfig(), c.Summarizer())
	assert.Equal(t, 3, c.SampleCount)
	assert.Equal(t, filepath.Join(home, ".mindscope", "personas"), c.PersonasDir)

	rc := c.Runtime(ai.ProviderOllama)
	assert.Equal(t, 60*time.Second, rc.HTTPTimeout)
	assert.Equal(t, 500*time.Millisecond, rc.BaseDelay)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_model: llama3.1:8b\ndate_like_threshold: 0.75\ngemini_api_key: g-key\n"), 0o644))
	t.Setenv("MINDSCOPE_DEFAULT_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.DefaultModel, "env beats file")
	assert.Equal(t, 0.75, c.DateLikeThreshold)
	assert.Equal(t, "sk-env", c.APIKey)
	assert.Equal(t, "g-key", c.Runtime("Gemini").APIKey)
	assert.Equal(t, "sk-env", c.Runtime(ai.ProviderOpenAI).APIKey)
	assert.Equal(t, "gpt-4o", c.Generation().Model)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	c.DefaultModel = "gemini-2.0-flash"
	c.SampleCount = 7
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".mindscope", "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", again.DefaultModel)
	assert.Equal(t, 7, again.SampleCount)
}
