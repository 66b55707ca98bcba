//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectLecturer ensures the username is detected and non-empty.
func TestDetectLecturer(t *testing.T) {
	t.Parallel()

	lecturer, err := DetectLecturer()
	require.NoError(t, err)
	require.NotEmpty(t, lecturer)
}
