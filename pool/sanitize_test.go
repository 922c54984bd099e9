package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeID(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		wantErr bool
		want    string
	}{
		{"plain", "a", false, "a"},
		{"hyphenated", "my-store", false, "my-store"},
		{"absolute-unix", "/etc/passwd", true, ""},
		{"parent-dir", "../etc/passwd", true, ""},
		{"nested-parent", "foo/../bar", true, ""},
		{"directory-segment", "foo/bar", true, ""},
		{"backslash", `foo\bar`, true, ""},
		{"empty", "", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeID(tc.id)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, NotFound, err.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
