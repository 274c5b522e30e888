package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"ai": {"embedders": [{"name": "local", "provider": "hash", "model": "hash-384"}]},
		"rag": {
			"index_dir": "/tmp/idx",
			"sources": [{"path": "data/brands", "doc_type": "brand"}]
		}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "index", cfg.RAG.IndexName)
	require.Equal(t, 3, cfg.RAG.DefaultK)
	require.Equal(t, 2, cfg.RAG.FetchMultiplier)
	require.Equal(t, 10, cfg.RAG.MinContentLength)
	require.Equal(t, []string{".txt"}, cfg.RAG.Extensions)
	require.Equal(t, 45, cfg.AI.Timeout)
	require.Equal(t, 150, cfg.AI.MaxTokens)
	require.InDelta(t, 0.5, *cfg.AI.Temperature, 1e-6)
	require.Equal(t, 1000, cfg.RAG.ChunkSize)
	require.Equal(t, 200, *cfg.RAG.ChunkOverlap)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
ai:
  embedders:
    - name: local
      provider: hash
      model: hash-384
rag:
  index_dir: /tmp/idx
  index_name: brands
  default_k: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "brands", cfg.RAG.IndexName)
	require.Equal(t, 5, cfg.RAG.DefaultK)
}

func TestLoad_ExplicitZeroIsKept(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"ai": {"embedders": [{"provider": "hash", "model": "hash-384"}], "temperature": 0},
		"rag": {"index_dir": "/tmp/idx", "chunk_size": 500, "chunk_overlap": 0}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.AI.Temperature)
	require.Zero(t, *cfg.AI.Temperature)
	require.NotNil(t, cfg.RAG.ChunkOverlap)
	require.Zero(t, *cfg.RAG.ChunkOverlap)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"ai": {"embedders": [{"provider": "hash", "model": "hash-384"}]},
		"rag": {"index_dir": "/tmp/idx"}
	}`)
	t.Setenv("BRANDBOT_RAG_INDEX_DIR", "/srv/index")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/index", cfg.RAG.IndexDir)
}

func TestLoad_MissingRequired(t *testing.T) {
	cases := map[string]string{
		"no embedder":     `{"rag": {"index_dir": "/tmp/idx"}}`,
		"no model":        `{"ai": {"embedders": [{"provider": "hash"}]}, "rag": {"index_dir": "/tmp/idx"}}`,
		"no index dir":    `{"ai": {"embedders": [{"provider": "hash", "model": "m"}]}}`,
		"bad doc type":    `{"ai": {"embedders": [{"provider": "hash", "model": "m"}]}, "rag": {"index_dir": "/x", "sources": [{"path": "p", "doc_type": "faq"}]}}`,
		"negative temp":   `{"ai": {"embedders": [{"provider": "hash", "model": "m"}], "temperature": -1}, "rag": {"index_dir": "/x"}}`,
		"overlap too big": `{"ai": {"embedders": [{"provider": "hash", "model": "m"}]}, "rag": {"index_dir": "/x", "chunk_size": 100, "chunk_overlap": 100}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.json", body))
			require.Error(t, err)
		})
	}
}
