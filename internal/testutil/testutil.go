// Package testutil provides shared test helpers for creating config files.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a minimal config file with the usage ledger pointed at tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "data"), 0755))

	configContent := fmt.Sprintf(`server:
  port: 8080
  cors:
    allowed_origins:
      - http://localhost:3000
client:
  server_url: http://localhost:8080
database:
  enabled: false
  driver: sqlite3
  path: %s
`,
		filepath.Join(tmpDir, "data", "codetutor.db"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey creates a config file with a fake OpenAI API key for tests
// that require API key validation to pass.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte("openai:\n  api_key: fake-key-for-testing\n  model: deepseek-chat\n")...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}
