package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, TimeoutPolicyReturn, cfg.Search.TimeoutPolicy)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Len(t, cfg.Schema.Fields, 2)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
search:
  queryTimeout: 2s
  timeoutPolicy: fail
  defaultLimit: 50
  maxResults: 20
indexer:
  maxDocTableSize: 500000000
schema:
  name: articles
  fields:
    - name: published
      type: numeric
      sortable: true
`)
	t.Setenv("SP_SEARCH_POOL_SIZE", "4")
	t.Setenv("SP_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SP_INDEXER_GC_INTERVAL", "not-a-duration")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Search.QueryTimeout)
	assert.Equal(t, TimeoutPolicyFail, cfg.Search.TimeoutPolicy)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, MaxDocTableSizeLimit, cfg.Indexer.MaxDocTableSize)
	assert.Equal(t, 4, cfg.Search.SearchPoolSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Second, cfg.Indexer.GCInterval)
	require.Len(t, cfg.Schema.Fields, 1)
	assert.True(t, cfg.Schema.Fields[0].Sortable)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "search:\n  timeoutPolicy: maybe\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "indexer:\n  gcPolicy: sometimes\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "indexer:\n  maxDocTableSize: 0\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "search: [\n"))
	assert.Error(t, err)
}
