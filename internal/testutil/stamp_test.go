package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedStamp_ReturnsSameValue(t *testing.T) {
	stamp := FixedStamp(int64(7))

	for i := 0; i < 3; i++ {
		v, err := stamp(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	}
}

func TestFailingStamp(t *testing.T) {
	boom := errors.New("boom")
	v, err := FailingStamp(boom)(context.Background())
	assert.Nil(t, v)
	assert.ErrorIs(t, err, boom)
}
