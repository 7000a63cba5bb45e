package monitor

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/crdtedit"
	"github.com/homveloper/luvjson/docengine"
)

func TestServerStateReportsActorAndQueueDepth(t *testing.T) {
	doc, err := docengine.Init(docengine.WithActorID(common.ActorID("aa")))
	require.NoError(t, err)

	_, err = doc.Change("set bird", func(ctx *crdtedit.Context) error {
		return ctx.SetMapKey(nil, "bird", "finch")
	})
	require.NoError(t, err)

	s := NewServer(doc, nil)
	req := httptest.NewRequest("GET", "/state", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var view stateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "aa", view.ActorID)
	assert.Equal(t, 1, view.RequestQueueDepth)
}

func TestServerStateOnFreshDocumentHasEmptyClock(t *testing.T) {
	doc, err := docengine.Init(docengine.WithActorID(common.ActorID("bb")))
	require.NoError(t, err)

	s := NewServer(doc, nil)
	req := httptest.NewRequest("GET", "/state", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var view stateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, uint64(0), view.MaxOp)
	assert.Empty(t, view.Clock)
	assert.Equal(t, 0, view.RequestQueueDepth)
}
