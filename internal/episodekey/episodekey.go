// Package episodekey implements the deterministic, Unicode-safe filename
// generator (C2) that derives a stable fileKey from an episode's (title,
// pubDate). The function is pure: the same inputs always produce the same
// bytes, on any platform, regardless of how the title was Unicode-normalized
// at the source.
package episodekey

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// MaxSlugLength bounds the slug portion of the key. 80 is the floor the spec
// allows; picking exactly that keeps keys short and filesystem-friendly
// without needing to special-case any real feed observed so far.
const MaxSlugLength = 80

var (
	nonSlugChars  = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// rfc2822-ish layouts gofeed/mail.ParseDate tends to hand back; tried in
// order before falling back to RFC3339 and a couple of common date-only forms.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// FileKey derives the `{date}_{slug}` fileKey for an episode from its title
// and publication date, per §4.2. Returns InputInvariantViolation if pubDate
// cannot be parsed under any supported layout.
func FileKey(title, pubDate string) (string, error) {
	date, err := ParseDate(pubDate)
	if err != nil {
		return "", apperrors.InvariantViolation("pubDate", err.Error())
	}
	slug := Slugify(title)
	return fmt.Sprintf("%s_%s", date.UTC().Format("2006-01-02"), slug), nil
}

// Slugify normalizes title to NFC, collapses whitespace runs to single
// hyphens, strips everything outside [A-Za-z0-9_.-], and truncates on a
// hyphen boundary. It is exported separately from FileKey so callers that
// already have a parsed date (e.g. the consistency checker re-deriving a key
// from a stored filename) don't need a dummy pubDate string.
func Slugify(title string) string {
	normalized := norm.NFC.String(title)
	collapsed := whitespaceRun.ReplaceAllString(strings.TrimSpace(normalized), "-")
	stripped := nonSlugChars.ReplaceAllString(collapsed, "")
	stripped = strings.Trim(stripped, "-")
	if stripped == "" {
		stripped = "untitled"
	}
	return truncateOnBoundary(stripped, MaxSlugLength)
}

func truncateOnBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexAny(cut, "-_"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, "-_")
}

// ParseDate parses an RSS/Atom pubDate under every layout FileKey itself
// tries (RFC1123Z/RFC1123/RFC822Z/RFC822/RFC3339 plus a couple of common
// date-only and named-zone forms), so any caller that needs the same
// timestamp FileKey derived from an item's date gets an identical parse
// instead of a second, narrower one that could disagree with it.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty pubDate")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable pubDate %q", raw)
}
