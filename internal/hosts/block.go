package hosts

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Markers bounding the managed block. The identifier is appended verbatim.
const (
	startMarkerPrefix = "#lando-managed-"
	endMarkerPrefix   = "#end-lando-managed-"
)

// StartMarker returns the line opening the managed block for id.
func StartMarker(id string) string {
	return startMarkerPrefix + id
}

// EndMarker returns the line closing the managed block for id.
func EndMarker(id string) string {
	return endMarkerPrefix + id
}

// RenderBlock renders the managed block for id: start marker, one IPv4 and
// one IPv6 line per entry, end marker. There is no trailing line break.
func RenderBlock(id string, entries []HostEntry, newline string) string {
	lines := make([]string, 0, 2+2*len(entries))
	lines = append(lines, StartMarker(id))
	for _, e := range entries {
		lines = append(lines, e.Lines()...)
	}
	lines = append(lines, EndMarker(id))
	return strings.Join(lines, newline)
}

// Merge returns current with the managed block for id set to entries.
//
// An existing block is replaced in place and any further blocks for the same
// id are dropped. Without one, a line break and the block are appended.
// Markers are matched as whole literal lines, so ids that are prefixes of
// each other never collide. Merge is idempotent.
func Merge(current string, entries []HostEntry, id string) string {
	nl := lineEnding(current)
	block := RenderBlock(id, entries, nl)

	start, markerEnd, ok := findMarkerLine(current, StartMarker(id), 0)
	if !ok {
		return current + nl + block
	}

	end := blockEnd(current, id, markerEnd)
	return current[:start] + block + removeBlocks(current[end:], id)
}

// Remove drops every managed block for id together with the line break that
// separated it from the preceding content, undoing the append done by Merge.
func Remove(current string, id string) string {
	return removeBlocks(current, id)
}

// HasBlock reports whether content carries a start marker line for id.
func HasBlock(content string, id string) bool {
	_, _, ok := findMarkerLine(content, StartMarker(id), 0)
	return ok
}

// NeedsWrite reports whether the candidate contents differ from what is on disk.
func NeedsWrite(current, candidate string) bool {
	return current != candidate
}

// Diff renders a unified diff between the current and candidate contents.
func Diff(path, current, candidate string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(current),
		B:        difflib.SplitLines(candidate),
		FromFile: path,
		ToFile:   path,
		Context:  2,
	})
}

func lineEnding(content string) string {
	if strings.Contains(content, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// findMarkerLine locates marker as a whole line at or after from. Leading and
// trailing blanks on the line are tolerated. It returns the offset of the
// line start and the offset right after the marker and its trailing blanks.
func findMarkerLine(content, marker string, from int) (int, int, bool) {
	for pos := from; pos <= len(content); {
		idx := strings.Index(content[pos:], marker)
		if idx < 0 {
			return 0, 0, false
		}

		start := pos + idx
		lineStart := start
		for lineStart > 0 && isBlank(content[lineStart-1]) {
			lineStart--
		}
		end := start + len(marker)
		for end < len(content) && isBlank(content[end]) {
			end++
		}

		if atLineStart(content, lineStart) && atLineEnd(content, end) {
			return lineStart, end, true
		}
		pos = start + 1
	}
	return 0, 0, false
}

// blockEnd returns the offset where the block opened by the start marker
// ending at markerEnd stops. A start marker without a matching end marker
// (or whose end marker lies past another start marker) only owns the
// loopback lines directly below it.
func blockEnd(content, id string, markerEnd int) int {
	endStart, end, found := findMarkerLine(content, EndMarker(id), markerEnd)
	nextStart, _, again := findMarkerLine(content, StartMarker(id), markerEnd)

	if found && (!again || nextStart > endStart) {
		return end
	}
	return skipLoopbackLines(content, markerEnd)
}

func removeBlocks(content, id string) string {
	for {
		start, markerEnd, ok := findMarkerLine(content, StartMarker(id), 0)
		if !ok {
			return content
		}
		content = cutBlock(content, start, blockEnd(content, id, markerEnd))
	}
}

// cutBlock removes content[start:end] plus one adjacent line break.
func cutBlock(content string, start, end int) string {
	if start > 0 {
		s := start - 1
		if s > 0 && content[s-1] == '\r' {
			s--
		}
		return content[:s] + content[end:]
	}

	if n := lineBreakEnd(content, end); n >= 0 {
		end = n
	}
	return content[end:]
}

func skipLoopbackLines(content string, pos int) int {
	for {
		next := lineBreakEnd(content, pos)
		if next < 0 {
			return pos
		}

		line := content[next:]
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSuffix(line, "\r")

		if !strings.HasPrefix(line, LoopbackIPv4+" ") && !strings.HasPrefix(line, LoopbackIPv6+" ") {
			return pos
		}
		pos = next + len(line)
	}
}

// lineBreakEnd returns the offset after the line break at pos, or -1.
func lineBreakEnd(content string, pos int) int {
	switch {
	case strings.HasPrefix(content[pos:], "\r\n"):
		return pos + 2
	case strings.HasPrefix(content[pos:], "\n"):
		return pos + 1
	}
	return -1
}

func atLineStart(content string, i int) bool {
	return i == 0 || content[i-1] == '\n'
}

func atLineEnd(content string, i int) bool {
	if i == len(content) || content[i] == '\n' {
		return true
	}
	return content[i] == '\r' && (i+1 == len(content) || content[i+1] == '\n')
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}
