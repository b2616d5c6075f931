package ids

import (
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a, b := New(), New()

	assert.Len(t, a, 27)
	assert.NotEqual(t, a, b)
	_, err := ksuid.Parse(a)
	assert.NoError(t, err)
}
