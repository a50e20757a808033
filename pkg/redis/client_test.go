package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyNamespacing(t *testing.T) {
	assert.Equal(t, "sb:events:flutterwave:evt-1", EventKey("flutterwave", "evt-1"))
	assert.Equal(t, "sb:sessions:42", SessionKey(42))
	assert.Equal(t, "sb:a:b:c", Key("a", "b", "c"))
}
