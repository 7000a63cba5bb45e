package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisAdapterKeyNaming(t *testing.T) {
	a := NewRedisAdapter(nil, "luvjson")
	assert.Equal(t, "luvjson:changes:doc-1", a.changesKey("doc-1"))
	assert.Equal(t, "luvjson:snapshot:doc-1", a.snapshotKey("doc-1"))
	assert.Equal(t, "luvjson:docs", a.documentSetKey())
}
