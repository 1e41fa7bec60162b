package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestParseJson(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	t.Run("loads from json", func(t *testing.T) {
		path := writeTempJSON(t, `{
			"endpoint_addr_http": ":8080",
			"database_dsn": "postgres://u:p@host:5432/links",
			"secret_key": "jsonsecret",
			"token_validity_duration": "45m",
			"gcm_endpoint": "http://gcm.local/send",
			"gcm_api_key": "apikey",
			"dispatch_timeout": "5s"
		}`)
		os.Args = []string{"cmd", "-c", path}

		config := Config{}
		config.LoadDefaults()
		parseJson(&config)

		assert.Equal(t, ":8080", config.EndpointAddrHTTP)
		assert.Equal(t, "postgres://u:p@host:5432/links", config.DatabaseDSN)
		assert.Equal(t, "jsonsecret", config.SecretKey)
		assert.Equal(t, 45*time.Minute, config.TokenValidityDuration)
		assert.Equal(t, "http://gcm.local/send", config.GCMEndpoint)
		assert.Equal(t, "apikey", config.GCMAPIKey)
		assert.Equal(t, 5*time.Second, config.DispatchTimeout)
	})

	t.Run("no config flag leaves defaults untouched", func(t *testing.T) {
		os.Args = []string{"cmd"}

		config := Config{}
		config.LoadDefaults()

		expected := config
		parseJson(&config)

		assert.Equal(t, expected, config)
	})

	t.Run("invalid json panics", func(t *testing.T) {
		path := writeTempJSON(t, `{not json`)
		os.Args = []string{"cmd", "-c", path}

		config := Config{}
		config.LoadDefaults()

		assert.Panics(t, func() { parseJson(&config) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"cmd", "-c", filepath.Join(t.TempDir(), "absent.json")}

		config := Config{}
		config.LoadDefaults()

		assert.Panics(t, func() { parseJson(&config) })
	})
}
