package diag

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parser.log")
	require.NoError(t, os.WriteFile(path, []byte("existing line\n"), 0o644))

	log, cleanup, err := New(Options{File: path})
	require.NoError(t, err)
	log.Info("issuer detected", zap.String("issuer", "HDFC"))
	log.Warn("field not found", zap.String("field", "billing_period"))
	log.Debug("suppressed at info level")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "existing line", lines[0])
	assert.Contains(t, lines[1], "INFO")
	assert.Contains(t, lines[1], "issuer detected")
	assert.Contains(t, lines[1], `"issuer": "HDFC"`)
	assert.Contains(t, lines[2], "WARN")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, lines[1])
}

func TestNewConcurrentWritersKeepLinesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parser.log")
	log, cleanup, err := New(Options{File: path, Level: "debug"})
	require.NoError(t, err)

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			l := log.With(zap.Int("writer", w))
			for i := 0; i < perWriter; i++ {
				l.Info("field extracted", zap.Int("seq", i))
			}
		}(w)
	}
	wg.Wait()
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, writers*perWriter)
	for _, line := range lines {
		assert.Contains(t, line, "field extracted")
		assert.True(t, strings.HasSuffix(line, "}"), "torn line %q", line)
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log, cleanup, err := New(Options{})
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, log)
	log.Info("discarded")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `log level "loud"`)
}
