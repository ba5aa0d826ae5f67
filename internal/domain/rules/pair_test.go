package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "alice_bob", PairID("alice", "bob"))
	assert.Equal(t, "alice_bob", PairID("bob", "alice"))
	assert.Equal(t, PairID("Zed", "abe"), PairID("abe", "Zed"))
}

func TestSplitPairID(t *testing.T) {
	lo, hi, ok := SplitPairID(PairID("u2", "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", lo)
	assert.Equal(t, "u2", hi)

	for _, id := range []string{"", "u1", "u2_u1", "u1_u1", "u1__u2", "u1_u2_u3", "u 1_u2"} {
		_, _, ok := SplitPairID(id)
		assert.Falsef(t, ok, "expected %q to be rejected", id)
	}
}

func TestValidUserID(t *testing.T) {
	assert.True(t, ValidUserID("Xk2v9-abc"))
	assert.False(t, ValidUserID(""))
	assert.False(t, ValidUserID("a_b"))
	assert.False(t, ValidUserID("a/b"))
}
