package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpIDStringRoundTrip(t *testing.T) {
	id := OpID{Counter: 7, Actor: ActorID("ab12")}
	assert.Equal(t, "7@ab12", id.String())

	parsed, err := ParseOpID("7@ab12")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseOpIDRejectsMalformed(t *testing.T) {
	cases := []string{"", "7", "@ab12", "x@ab12", "7@AB12", "7@abc"}
	for _, c := range cases {
		_, err := ParseOpID(c)
		assert.Errorf(t, err, "expected parse error for %q", c)
	}
}

func TestOpIDCompareLamportOrder(t *testing.T) {
	a := OpID{Counter: 1, Actor: ActorID("aa")}
	b := OpID{Counter: 1, Actor: ActorID("bb")}
	c := OpID{Counter: 2, Actor: ActorID("aa")}

	assert.True(t, a.Less(b))
	assert.True(t, a.Less(c))
	assert.True(t, b.Less(c))
	assert.Equal(t, 0, a.Compare(a))
}

func TestMakeOpRun(t *testing.T) {
	base := OpID{Counter: 5, Actor: ActorID("aa")}
	run := MakeOpRun(base, 3)
	require.Len(t, run, 3)
	assert.Equal(t, uint64(5), run[0].Counter)
	assert.Equal(t, uint64(7), run[2].Counter)
	assert.Nil(t, MakeOpRun(base, 0))
}

func TestActorIDValidate(t *testing.T) {
	assert.NoError(t, ActorID("ab12").Validate())
	assert.Error(t, ActorID("").Validate())
	assert.Error(t, ActorID("abc").Validate())
	assert.Error(t, ActorID("AB12").Validate())
}

func TestMaxOpID(t *testing.T) {
	ids := []OpID{
		{Counter: 1, Actor: "aa"},
		{Counter: 3, Actor: "aa"},
		{Counter: 3, Actor: "ab"},
	}
	max := MaxOpID(ids)
	assert.Equal(t, OpID{Counter: 3, Actor: "ab"}, max)
}
