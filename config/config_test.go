package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultUsesMemoryStorageAndLocalBackend(t *testing.T) {
	c := Default()
	assert.Equal(t, "memory", c.Storage.Kind)
	assert.Equal(t, "local", c.Document.Backend)
	assert.Empty(t, c.Document.ActorID)
}

func TestNewAppliesOptionsOverDefaults(t *testing.T) {
	c := New(WithActorID("aa"), WithStorageKind("redis"))
	assert.Equal(t, "aa", c.Document.ActorID)
	assert.Equal(t, "redis", c.Storage.Kind)
	assert.Equal(t, "local", c.Document.Backend, "unset fields keep their default")
}

func TestLoadOverlaysYAMLOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "luvjson.yaml")
	contents := "document:\n  actorId: \"cafe\"\nstorage:\n  kind: badger\n  badger:\n    path: /tmp/luvjson\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cafe", c.Document.ActorID)
	assert.Equal(t, "badger", c.Storage.Kind)
	assert.Equal(t, "/tmp/luvjson", c.Storage.Badger.Path)
	assert.Equal(t, "localhost:6379", c.Storage.Redis.Addr, "sections absent from the file keep their default")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
