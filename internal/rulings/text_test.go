package rulings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "skips non-visible elements",
			input: `<html><head><title>T</title></head><body><script>x()</script><style>p{}</style><noscript>js</noscript><p>Visible</p></body></html>`,
			want:  "Visible",
		},
		{
			name:  "collapses whitespace between nodes",
			input: "<div>  NY   N312345 </div>\n<p>\tThe tariff\n classification</p>",
			want:  "NY N312345 The tariff classification",
		},
		{
			name:  "decodes entities",
			input: `<p>Tom &amp; Jerry&#39;s</p>`,
			want:  "Tom & Jerry's",
		},
		{
			name:  "empty document",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "any", truncateRunes("any", 0))
}
