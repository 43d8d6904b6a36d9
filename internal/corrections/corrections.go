// Package corrections implements the spelling-correction pass (§4.4.1): a
// per-site table merged with an operator-scoped custom table, applied as
// whole-word, case-insensitive replacements over transcript text.
package corrections

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/killallgit/ingest-platform/internal/blobstore"
	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// Rule is one correction entry: any of Misspellings, matched whole-word and
// case-insensitively, is replaced verbatim with CorrectedSpelling.
type Rule struct {
	Misspellings      []string `json:"misspellings"`
	CorrectedSpelling string   `json:"correctedSpelling"`
}

// File is the on-disk shape of a corrections table (§6).
type File struct {
	CorrectionsToApply []Rule `json:"correctionsToApply"`
}

// compiledRule pairs a rule with its compiled whole-word pattern.
type compiledRule struct {
	pattern *regexp.Regexp
	target  string
}

// Table is a loaded, compiled set of correction rules ready to apply to
// transcript text. Rules apply in document order and a replacement's output
// is never re-scanned by a later rule (§4.4.1).
type Table struct {
	rules []compiledRule
}

// SiteCorrectionsKey is the blob key a site's correction table lives at.
const SiteCorrectionsKey = "config/corrections.json"

// Load reads and merges a site's correction table with an operator-scoped
// custom table. A missing site file is non-fatal — it is simply omitted from
// the merge, matching §4.4.1's "missing site file is non-fatal."
func Load(ctx context.Context, blobs blobstore.Store, custom *File) (*Table, error) {
	var rules []Rule

	siteFile, err := loadSiteFile(ctx, blobs)
	if err != nil {
		return nil, err
	}
	if siteFile != nil {
		rules = append(rules, siteFile.CorrectionsToApply...)
	}
	if custom != nil {
		rules = append(rules, custom.CorrectionsToApply...)
	}

	return Compile(rules)
}

func loadSiteFile(ctx context.Context, blobs blobstore.Store) (*File, error) {
	data, err := blobs.Get(ctx, SiteCorrectionsKey)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.TransientIO("corrections.Load", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperrors.InvariantViolation("corrections", "malformed JSON: "+err.Error())
	}
	return &f, nil
}

// Compile builds a Table from raw rules, compiling each misspelling into a
// whole-word, case-insensitive pattern.
func Compile(rules []Rule) (*Table, error) {
	table := &Table{}
	for _, rule := range rules {
		for _, misspelling := range rule.Misspellings {
			if strings.TrimSpace(misspelling) == "" {
				continue
			}
			pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(misspelling) + `\b`)
			if err != nil {
				return nil, apperrors.InvariantViolation("corrections", "invalid misspelling pattern: "+misspelling)
			}
			table.rules = append(table.rules, compiledRule{pattern: pattern, target: rule.CorrectedSpelling})
		}
	}
	return table, nil
}

// Report counts actual substitutions performed per corrected spelling — not
// match count, since two overlapping patterns could otherwise double-count
// the same span (§4.4.1 "count of actual substitutions").
type Report map[string]int

// Apply runs every rule over text in order and returns the corrected text
// plus a substitution count report.
func (t *Table) Apply(text string) (string, Report) {
	report := Report{}
	for _, rule := range t.rules {
		var count int
		text = rule.pattern.ReplaceAllStringFunc(text, func(match string) string {
			count++
			return rule.target
		})
		if count > 0 {
			report[rule.target] += count
		}
	}
	return text, report
}
