package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ws://localhost:4000/ws", serverURL("localhost:4000"))
	assert.Equal(t, "ws://example.com/ws", serverURL("example.com/"))
	assert.Equal(t, "wss://example.com/game", serverURL("wss://example.com/game"))
}
