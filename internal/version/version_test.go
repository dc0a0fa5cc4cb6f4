package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFullContainsParts checks that Full embeds all build metadata fields.
func TestFullContainsParts(t *testing.T) {
	t.Parallel()

	full := Full()
	require.Contains(t, full, Version)
	require.Contains(t, full, Commit)
	require.Contains(t, full, BuildTime)

	require.Equal(t, Version, Short())
}
