package buildstat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBarBuildsWithoutPanicking(t *testing.T) {
	var bar interface{ Finish() error }
	assert.NotPanics(t, func() {
		bar = NewBar(100, 1, 3, "writing node-geo blocks")
	})
	assert.NotNil(t, bar)
}

func TestStepLabelFormatsOrIsBlank(t *testing.T) {
	assert.Equal(t, "[cyan][1/3][reset] ", stepLabel(1, 3))
	assert.Equal(t, "", stepLabel(0, 3))
	assert.Equal(t, "", stepLabel(1, 0))
}
