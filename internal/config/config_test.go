package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Parallel()

	t.Run("Defaults", func(t *testing.T) {
		t.Parallel()

		c, err := Default()
		require.NoError(t, err)

		assert.Equal(t, 2*time.Second, c.Interval)
		assert.Equal(t, 20, c.TopN)
		assert.Equal(t, "cpu", c.SortBy)
		assert.Equal(t, "", c.Listen)
		assert.Equal(t, "info", c.Logging.Level)
		assert.NoError(t, c.Validate())
	})

	t.Run("FromFile", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "interval: 5s\nsort-by: mem\nlisten: localhost:9120\nlogging:\n  level: debug\n")

		c, err := FromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 5*time.Second, c.Interval)
		assert.Equal(t, "mem", c.SortBy)
		assert.Equal(t, "localhost:9120", c.Listen)
		assert.Equal(t, "debug", c.Logging.Level)
		assert.Equal(t, 20, c.TopN, "omitted keys keep their defaults")
	})

	t.Run("MissingFile", func(t *testing.T) {
		t.Parallel()

		_, err := FromFile(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})

	t.Run("ValidationFailures", func(t *testing.T) {
		t.Parallel()

		testdata := []struct {
			Name string
			Yaml string
		}{
			{"NegativeInterval", "interval: -1s\n"},
			{"ZeroTopN", "top-n: 0\n"},
			{"UnknownSortKey", "sort-by: threads\n"},
			{"BogusLogLevel", "logging:\n  level: chatty\n"},
		}

		for _, td := range testdata {
			td := td
			t.Run(td.Name, func(t *testing.T) {
				t.Parallel()

				_, err := FromFile(writeConfig(t, td.Yaml))
				assert.Error(t, err)
			})
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
