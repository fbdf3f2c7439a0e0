package roomcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqSource struct {
	next int
}

func (s *seqSource) Intn(n int) int {
	v := s.next % n
	s.next++
	return v
}

func TestGenerateProducesValidCodes(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		require.NoError(t, Validate(code))
	}
}

func TestGeneratorIsDeterministicWithFixedSource(t *testing.T) {
	a := NewGenerator(&seqSource{}).Generate()
	b := NewGenerator(&seqSource{}).Generate()
	assert.Equal(t, a, b)
	assert.Equal(t, "012345", b)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("ABC123"))
	assert.Error(t, Validate("ABC12"), "too short")
	assert.Error(t, Validate("ABC1234"), "too long")
	assert.Error(t, Validate("ABC12O"), "O is not in the alphabet")
	assert.Error(t, Validate("abc123"), "lowercase rejected")
}
