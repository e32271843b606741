package wisc

import (
	"errors"
	"testing"

	"crosspred/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		level int
		count int
		first string
	}{
		{0, 16, "WISC_FSIQ"},
		{1, 1, "WISC_FSIQ"},
		{2, 5, "WISC_VSI"},
		{3, 10, "WISC_BD_Scaled"},
		{4, 10, "WISC_BD_Raw"},
		{5, 6, "WISC_FSIQ"},
	}
	for _, tt := range tests {
		measures, err := Level(tt.level)
		require.NoError(t, err)
		assert.Len(t, measures, tt.count, "level %d", tt.level)
		assert.Equal(t, tt.first, measures[0])
	}

	_, err := Level(9)
	assert.True(t, errors.Is(err, core.ErrUnknownLevel))
}

func TestLevelReturnsCopy(t *testing.T) {
	m, err := Level(1)
	require.NoError(t, err)
	m[0] = "changed"
	assert.Equal(t, "WISC_FSIQ", FSIQ[0])
}
