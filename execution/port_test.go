package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPort_ReleasesPrefixReadByAll(t *testing.T) {
	port := &outputPort{}
	first := port.subscribe()
	second := port.subscribe()

	require.NoError(t, port.push(intChunk(1)))
	require.NoError(t, port.push(intChunk(2)))
	require.NoError(t, port.push(intChunk(3)))
	assert.Equal(t, 3, port.buffered())

	assert.Len(t, first.read(), 3)
	assert.Equal(t, 3, port.buffered())
	assert.Nil(t, first.read())

	chunk, ok := second.readOne()
	require.True(t, ok)
	assert.Equal(t, intChunk(1), chunk)
	assert.Equal(t, 2, port.buffered())

	assert.Len(t, second.read(), 2)
	assert.Equal(t, 0, port.buffered())

	require.NoError(t, port.push(intChunk(4)))
	assert.Equal(t, 1, first.pending())
	assert.Equal(t, 1, second.pending())
	assert.False(t, first.exhausted())

	require.NoError(t, port.close())
	assert.False(t, first.exhausted())
	first.read()
	assert.True(t, first.exhausted())
	assert.False(t, second.exhausted())
}

func TestOutputPort_Errors(t *testing.T) {
	port := &outputPort{}
	require.NoError(t, port.push(intChunk(1)))
	assert.Equal(t, 0, port.buffered())
	assert.Equal(t, 1, port.chunksOut)

	require.NoError(t, port.close())
	assert.Equal(t, errPushAfterClose, port.push(intChunk(2)))
	assert.Equal(t, errDoubleClose, port.close())
}
