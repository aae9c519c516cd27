package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgryszko/starting-ragchatbot-codebase/vector"
)

func TestExpandEnvVarsInData(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-123")
	t.Setenv("TEST_PORT", "9000")
	os.Unsetenv("TEST_UNSET")

	data := map[string]interface{}{
		"api_key": "${TEST_API_KEY}",
		"port":    "${TEST_PORT}",
		"host":    "${TEST_UNSET:-localhost}",
		"plain":   "no expansion here",
		"nested": map[string]interface{}{
			"model": "$TEST_API_KEY",
		},
		"list": []interface{}{"${TEST_UNSET:-first}", "second"},
	}

	result := ExpandEnvVarsInData(data).(map[string]interface{})

	assert.Equal(t, "sk-test-123", result["api_key"])
	// numeric expansions keep their YAML type
	assert.Equal(t, 9000, result["port"])
	assert.Equal(t, "localhost", result["host"])
	assert.Equal(t, "no expansion here", result["plain"])

	nested := result["nested"].(map[string]interface{})
	assert.Equal(t, "sk-test-123", nested["model"])

	list := result["list"].([]interface{})
	assert.Equal(t, []interface{}{"first", "second"}, list)
}

func TestLoad_FileWithExpansion(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")
	t.Setenv("TEST_DOCS", "/srv/docs")

	content := `
docs_folder: ${TEST_DOCS}
anthropic:
  api_key: ${ANTHROPIC_API_KEY}
  model: claude-sonnet-4-20250514
server:
  address: ":9001"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.DocsFolder)
	assert.Equal(t, "sk-from-env", cfg.Anthropic.APIKey)
	assert.Equal(t, ":9001", cfg.Server.Address)
	// untouched sections get their defaults
	assert.Equal(t, 800, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 2, cfg.Session.MaxHistory)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-defaults")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "docs", cfg.DocsFolder)
	assert.Equal(t, "sk-defaults", cfg.Anthropic.APIKey, "API key should fall back to the environment")
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, vector.ProviderType("chromem"), cfg.Vector.Type)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load("")
	require.Error(t, err, "Load() should fail validation without an API key")
}
