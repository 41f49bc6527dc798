package sdj

import (
	"regexp"
	"strings"
)

var (
	reHeading  = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	reCodeSpan = regexp.MustCompile("(?s)`{1,3}.*?`{1,3}")
	reLink     = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	rePipe     = regexp.MustCompile(`\|`)
	reSpace    = regexp.MustCompile(`\s+`)
)

// StripMarkdown derives plain text from markdown by removing formatting
// markers. The transform is deterministic and lossy; the original markdown is
// never reconstructible from its output.
func StripMarkdown(markdown string) string {
	if markdown == "" {
		return ""
	}
	text := reHeading.ReplaceAllString(markdown, "")
	text = reCodeSpan.ReplaceAllString(text, "")
	text = reLink.ReplaceAllString(text, "$1")
	text = rePipe.ReplaceAllString(text, " ")
	text = reSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
