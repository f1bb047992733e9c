package firehose

import "strings"

// ExtractHashtags returns every whitespace-separated token of text that
// starts with '#'. Tags keep their original case unless lowercase is set.
func ExtractHashtags(text string, lowercase bool) []string {
	var tags []string
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		if lowercase {
			word = strings.ToLower(word)
		}
		tags = append(tags, word)
	}
	return tags
}
