// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Defaults Without File",
			testFunc: func(t *testing.T) {
				config, err := loadConfig("")
				require.NoError(t, err, "loadConfig() error")

				assert.Equal(t, 30, config.Defaults.TimeoutSeconds, "default timeout")
				assert.Equal(t, "any", config.Defaults.Purpose, "default purpose")
				assert.False(t, config.Defaults.CheckAllCRLs, "default CRL scope")
				assert.Equal(t, "native", config.Engine.Type, "default engine")
			},
		},
		{
			name: "JSON File",
			testFunc: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.json")
				require.NoError(t, os.WriteFile(path, []byte(`{
					"defaults": {"timeoutSeconds": 5, "checkAllCRLs": true, "purpose": "sslserver"},
					"cache": {"dir": "/var/cache/crl"},
					"anchors": {"files": ["/etc/ssl/root.pem"]},
					"engine": {"type": "openssl", "opensslBinary": "/usr/bin/openssl"}
				}`), 0o644))

				config, err := loadConfig(path)
				require.NoError(t, err, "loadConfig() error")

				assert.Equal(t, 5, config.Defaults.TimeoutSeconds)
				assert.True(t, config.Defaults.CheckAllCRLs)
				assert.Equal(t, "sslserver", config.Defaults.Purpose)
				assert.Equal(t, "/var/cache/crl", config.Cache.Dir)
				assert.Equal(t, []string{"/etc/ssl/root.pem"}, config.Anchors.Files)
				assert.Equal(t, "openssl", config.Engine.Type)
				assert.Equal(t, "/usr/bin/openssl", config.Engine.OpenSSLBinary)
			},
		},
		{
			name: "YAML File",
			testFunc: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(`
defaults:
  timeoutSeconds: 7
  checkAllCRLs: true
anchors:
  dirs:
    - /etc/ssl/certs
engine:
  type: native
`), 0o644))

				config, err := loadConfig(path)
				require.NoError(t, err, "loadConfig() error")

				assert.Equal(t, 7, config.Defaults.TimeoutSeconds)
				assert.True(t, config.Defaults.CheckAllCRLs)
				assert.Equal(t, []string{"/etc/ssl/certs"}, config.Anchors.Dirs)
				assert.Equal(t, "native", config.Engine.Type)
			},
		},
		{
			name: "Invalid Values Fall Back To Defaults",
			testFunc: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.json")
				require.NoError(t, os.WriteFile(path, []byte(`{
					"defaults": {"timeoutSeconds": -1, "purpose": ""},
					"engine": {"type": ""}
				}`), 0o644))

				config, err := loadConfig(path)
				require.NoError(t, err, "loadConfig() error")

				assert.Equal(t, 30, config.Defaults.TimeoutSeconds, "negative timeout must fall back")
				assert.Equal(t, "any", config.Defaults.Purpose, "empty purpose must fall back")
				assert.Equal(t, "native", config.Engine.Type, "empty engine must fall back")
			},
		},
		{
			name: "Environment Variable Path",
			testFunc: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.yml")
				require.NoError(t, os.WriteFile(path, []byte("defaults:\n  timeoutSeconds: 3\n"), 0o644))
				t.Setenv("MCP_X509_TRUST_CONFIG_FILE", path)

				config, err := loadConfig("")
				require.NoError(t, err, "loadConfig() error")

				assert.Equal(t, 3, config.Defaults.TimeoutSeconds, "env-named config must be loaded")
			},
		},
		{
			name: "Missing File",
			testFunc: func(t *testing.T) {
				_, err := loadConfig("/nonexistent/config.json")
				assert.Error(t, err, "expected error for unreadable config")
			},
		},
		{
			name: "Malformed JSON",
			testFunc: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "config.json")
				require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

				_, err := loadConfig(path)
				assert.Error(t, err, "expected error for malformed JSON")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestDetectConfigFormat(t *testing.T) {
	assert.Equal(t, configFormatYAML, detectConfigFormat("a.yaml"))
	assert.Equal(t, configFormatYAML, detectConfigFormat("a.YML"))
	assert.Equal(t, configFormatJSON, detectConfigFormat("a.json"))
	assert.Equal(t, configFormatJSON, detectConfigFormat("a.conf"))
}
