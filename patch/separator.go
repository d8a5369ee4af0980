package patch

import (
	"strings"
)

// Separate splits a rewritten rule class source into its two views.
// The deletions view keeps context and removed lines; the additions
// view keeps context and added lines, with every removed statement
// replaced by a deletion marker call so positions survive. Both views
// have exactly as many lines as the input.
func Separate(source string) (dels, adds string) {
	var delLines, addLines []string
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-"):
			delLines = append(delLines, unmark(line))
			addLines = append(addLines, deletionStandIn(line))
		case strings.HasPrefix(trimmed, "+"):
			delLines = append(delLines, "")
			addLines = append(addLines, unmark(line))
		default:
			delLines = append(delLines, line)
			addLines = append(addLines, line)
		}
	}
	return strings.Join(delLines, "\n"), strings.Join(addLines, "\n")
}

// unmark replaces the leading +/- marker with a space, keeping the
// line length and the indentation of what follows.
func unmark(line string) string {
	idx := strings.IndexAny(line, "+-")
	return line[:idx] + " " + line[idx+1:]
}

// deletionStandIn renders what a removed line becomes in the additions
// view. Removed statements leave a marker call at the same indentation
// so the anchors of surrounding additions stay aligned; removed dots
// and method headers leave a blank line since neither has a positional
// stand-in.
func deletionStandIn(line string) string {
	content := strings.TrimSpace(unmark(line))
	if content == "" {
		return ""
	}
	if strings.HasPrefix(content, DotsMarker) || methodHeaderPattern.MatchString(content) {
		return ""
	}
	unmarked := unmark(line)
	indent := unmarked[:len(unmarked)-len(strings.TrimLeft(unmarked, " \t"))]
	return indent + DeletionMarker + "();"
}
