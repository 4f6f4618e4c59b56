package config

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/uniclass/pkg/catalog"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, "./uniclass_tables", config.TablesDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Empty(t, config.Security.APIKey)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, SourceStore, config.Catalog.Source)
	assert.NoError(t, config.Validate())
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64) // 32 bytes = 64 hex characters

		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("generate different keys", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			DataDir:   "/custom/data",
			TablesDir: "/custom/tables",
			Port:      9000,
			Bind:      "0.0.0.0",
			Security:  Security{APIKey: "test-api-key"},
			Logging:   Logging{Level: "debug", Format: "json"},
			Catalog: Catalog{
				Malformed:    "skip",
				Duplicates:   "keep-last",
				Trailing:     "ignore",
				Source:       SourceSnapshot,
				SnapshotPath: "/custom/uniclass.snap",
			},
		}

		require.NoError(t, SaveConfig(expectedConfig, configPath))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing fields keep defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("port: 9100\n"), 0600))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 9100, loadedConfig.Port)
		assert.Equal(t, "./uniclass_tables", loadedConfig.TablesDir)
		assert.Equal(t, "abort", loadedConfig.Catalog.Malformed)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("load invalid values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("catalog:\n  duplicates: newest\n"), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "defaults", modify: func(*Config) {}, valid: true},
		{name: "bad port", modify: func(c *Config) { c.Port = 70000 }},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "loud" }},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "bad malformed", modify: func(c *Config) { c.Catalog.Malformed = "explode" }},
		{name: "bad trailing", modify: func(c *Config) { c.Catalog.Trailing = "truncate" }},
		{name: "bad source", modify: func(c *Config) { c.Catalog.Source = "s3" }},
		{name: "snapshot without path", modify: func(c *Config) { c.Catalog.Source = SourceSnapshot }},
		{name: "snapshot with path", modify: func(c *Config) {
			c.Catalog.Source = SourceSnapshot
			c.Catalog.SnapshotPath = "x.snap"
		}, valid: true},
		{name: "warn level", modify: func(c *Config) { c.Logging.Level = "warn" }, valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.modify(config)
			err := config.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	config := DefaultConfig()
	policy, err := config.Policy()
	require.NoError(t, err)
	assert.Equal(t, catalog.DuplicateError, policy.Duplicates)
	assert.Equal(t, catalog.MalformedAbort, policy.Malformed)
	assert.False(t, policy.Parse.IgnoreTrailing)

	config.Catalog = Catalog{Malformed: "skip", Duplicates: "keep-first", Trailing: "ignore"}
	policy, err = config.Policy()
	require.NoError(t, err)
	assert.Equal(t, catalog.DuplicateKeepFirst, policy.Duplicates)
	assert.Equal(t, catalog.MalformedSkip, policy.Malformed)
	assert.True(t, policy.Parse.IgnoreTrailing)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Logging = Logging{Level: "warn", Format: "json"}

	logger, err := config.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "code", "Ss_25")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"code":"Ss_25"`)

	config.Logging.Level = "chatty"
	_, err = config.NewLogger(&buf)
	assert.Error(t, err)
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := DefaultConfig()

	require.NoError(t, SaveConfig(config, configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	t.Run("with api key", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		dataDir := "/custom/data/dir"

		config, err := BootstrapConfig(configPath, dataDir, true)
		require.NoError(t, err)

		assert.Equal(t, dataDir, config.DataDir)
		assert.Equal(t, 8080, config.Port)
		assert.Len(t, config.Security.APIKey, 64)
		_, err = hex.DecodeString(config.Security.APIKey)
		assert.NoError(t, err)

		assert.True(t, ConfigExists(configPath))

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, config, loadedConfig)
	})

	t.Run("without api key", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		config, err := BootstrapConfig(configPath, "", false)
		require.NoError(t, err)
		assert.Equal(t, "./data", config.DataDir)
		assert.Empty(t, config.Security.APIKey)
	})
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "uniclass")
	assert.Contains(t, path, ".yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	require.NoError(t, os.WriteFile(existingPath, []byte("test"), 0644))

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLMarshalling(t *testing.T) {
	config := DefaultConfig()
	config.Security.APIKey = "api-key-123"

	data, err := yaml.Marshal(config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tables_dir: ./uniclass_tables")
	assert.Contains(t, string(data), "api_key: api-key-123")

	var unmarshalled Config
	require.NoError(t, yaml.Unmarshal(data, &unmarshalled))
	assert.Equal(t, config, &unmarshalled)
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	// A regular file cannot be used as a directory.
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	err := SaveConfig(config, filepath.Join(blocker, "sub", "config.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
