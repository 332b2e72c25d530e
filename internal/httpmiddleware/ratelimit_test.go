package httpmiddleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowExhaustsCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(3, 60)

	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.allow("10.0.0.1"))

	// Other clients have their own bucket.
	assert.True(t, l.allow("10.0.0.2"))
}

func TestCapacityDefaultsToRate(t *testing.T) {
	l := NewSimpleTokenBucket(0, 5)
	for i := 0; i < 5; i++ {
		assert.True(t, l.allow("a"))
	}
	assert.False(t, l.allow("a"))
}
