package firehose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		lowercase bool
		expected  []string
	}{
		{
			name:     "simple tags",
			text:     "shipping a thing #golang #atproto",
			expected: []string{"#golang", "#atproto"},
		},
		{
			name:     "no tags",
			text:     "nothing to see here",
			expected: nil,
		},
		{
			name:      "lowercase folding",
			text:      "big news #GoLang #ATProto",
			lowercase: true,
			expected:  []string{"#golang", "#atproto"},
		},
		{
			name:     "case preserved by default",
			text:     "big news #GoLang",
			expected: []string{"#GoLang"},
		},
		{
			name:     "hash mid-word ignored",
			text:     "c# is not a hashtag but #csharp is",
			expected: []string{"#csharp"},
		},
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
		{
			name:     "whitespace variants",
			text:     "#one\t#two\n#three",
			expected: []string{"#one", "#two", "#three"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractHashtags(tt.text, tt.lowercase))
		})
	}
}
