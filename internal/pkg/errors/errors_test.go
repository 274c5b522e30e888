package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsIndexFatal(t *testing.T) {
	require.True(t, IsIndexFatal(fmt.Errorf("load: %w", ErrIndexIncomplete)))
	require.True(t, IsIndexFatal(fmt.Errorf("load: %w", ErrEmbedderInit)))
	require.False(t, IsIndexFatal(fmt.Errorf("load: %w", ErrIndexEmpty)))
	require.False(t, IsIndexFatal(nil))
}
