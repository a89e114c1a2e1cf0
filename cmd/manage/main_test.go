package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCollectStaticWritesJSONAndYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, collectStatic(root))

	raw, err := os.ReadFile(filepath.Join(root, "swagger", "swagger.json"))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Equal(t, "/api/v1", doc["basePath"])

	raw, err = os.ReadFile(filepath.Join(root, "swagger", "swagger.yaml"))
	require.NoError(t, err)
	var fromYAML map[string]interface{}
	require.NoError(t, yaml.Unmarshal(raw, &fromYAML))
	assert.Equal(t, doc["basePath"], fromYAML["basePath"])
}

func TestCollectStaticRequiresRoot(t *testing.T) {
	assert.Error(t, collectStatic(""))
}
