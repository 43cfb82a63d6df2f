// Package selection implements the selection-rule DSL and resolves a
// parsed rule against an RPT's page/section tables into an ordered,
// duplicate-free (per rule semantics) list of pages. Parsing is a
// sequence of small, early-returning checks rather than a single
// regular expression.
package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/VantageDataChat/rpt-extract/internal/rpt"
)

// Kind tags which variant a Rule holds.
type Kind int

const (
	All Kind = iota
	Pages
	Sections
)

// Range is an inclusive (start, end) page range, both 1-based.
type Range struct {
	Start, End int
}

// Rule is the tagged-variant result of parsing a selection-rule string.
// Exactly one of Ranges/SectionIDs is meaningful, per Kind.
type Rule struct {
	Kind       Kind
	Ranges     []Range  // Kind == Pages
	SectionIDs []uint32 // Kind == Sections
}

// ErrInvalidRule is wrapped with context by Parse on any syntax error.
type ErrInvalidRule struct{ Reason string }

func (e *ErrInvalidRule) Error() string { return e.Reason }

// Parse parses a selection-rule string: "all" (or empty), a bare
// positive integer (single page), a bare comma-separated digit list
// (section IDs), or a "pages:"/"section:"/"sections:" prefixed list.
func Parse(raw string) (Rule, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return Rule{Kind: All}, nil
	}

	if n, ok := bareInteger(trimmed); ok {
		return Rule{Kind: Pages, Ranges: []Range{{Start: n, End: n}}}, nil
	}

	if looksLikeBareSectionList(trimmed) {
		ids, err := parseIDList(trimmed)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: Sections, SectionIDs: ids}, nil
	}

	prefix, rest, ok := splitPrefix(trimmed)
	if !ok {
		return Rule{}, &ErrInvalidRule{Reason: fmt.Sprintf("invalid selection rule: %q", raw)}
	}

	switch strings.ToLower(prefix) {
	case "pages":
		ranges, err := parseRangeList(rest)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: Pages, Ranges: ranges}, nil
	case "section", "sections":
		ids, err := parseIDList(rest)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: Sections, SectionIDs: ids}, nil
	default:
		return Rule{}, &ErrInvalidRule{Reason: fmt.Sprintf("invalid selection rule: unknown prefix %q", prefix)}
	}
}

// splitPrefix splits "prefix:rest" on the first colon.
func splitPrefix(s string) (prefix, rest string, ok bool) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}

// bareInteger reports whether s is a single positive integer with no
// other punctuation: a bare integer selects that one page.
func bareInteger(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// looksLikeBareSectionList reports whether s is digits/commas/spaces
// only, with at least one comma — the bare "Sections" shorthand.
func looksLikeBareSectionList(s string) bool {
	if !strings.Contains(s, ",") {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != ',' && r != ' ' {
			return false
		}
	}
	return true
}

func parseIDList(s string) ([]uint32, error) {
	parts := strings.Split(s, ",")
	ids := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, &ErrInvalidRule{Reason: fmt.Sprintf("invalid selection rule: empty id in %q", s)}
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, &ErrInvalidRule{Reason: fmt.Sprintf("invalid selection rule: bad id %q", p)}
		}
		ids = append(ids, uint32(n))
	}
	return ids, nil
}

func parseRangeList(s string) ([]Range, error) {
	parts := strings.Split(s, ",")
	ranges := make([]Range, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		r, err := parseRange(p)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parseRange(s string) (Range, error) {
	if s == "" {
		return Range{}, &ErrInvalidRule{Reason: "invalid page range: empty entry"}
	}
	if idx := strings.Index(s, "-"); idx >= 0 {
		startStr := strings.TrimSpace(s[:idx])
		endStr := strings.TrimSpace(s[idx+1:])
		if startStr == "" || endStr == "" {
			return Range{}, &ErrInvalidRule{Reason: fmt.Sprintf("invalid page range: %q", s)}
		}
		start, err1 := strconv.Atoi(startStr)
		end, err2 := strconv.Atoi(endStr)
		if err1 != nil || err2 != nil || start <= 0 || end <= 0 {
			return Range{}, &ErrInvalidRule{Reason: fmt.Sprintf("invalid page range: %q", s)}
		}
		return Range{Start: start, End: end}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return Range{}, &ErrInvalidRule{Reason: fmt.Sprintf("invalid page range: %q", s)}
	}
	return Range{Start: n, End: n}, nil
}

// inAnyRange reports whether page falls within any of ranges.
func inAnyRange(page int32, ranges []Range) bool {
	for _, r := range ranges {
		lo, hi := r.Start, r.End
		if lo > hi {
			lo, hi = hi, lo
		}
		if int(page) >= lo && int(page) <= hi {
			return true
		}
	}
	return false
}

// Resolve resolves rule against doc's page/section tables into an
// ordered list of page-table entries.
func Resolve(rule Rule, doc *rpt.Document) []rpt.PageTableEntry {
	switch rule.Kind {
	case All:
		return append([]rpt.PageTableEntry{}, doc.Pages...)
	case Pages:
		var out []rpt.PageTableEntry
		for _, p := range doc.Pages {
			if inAnyRange(p.PageNumber, rule.Ranges) {
				out = append(out, p)
			}
		}
		return out
	case Sections:
		bySection := doc.SectionByID()
		var out []rpt.PageTableEntry
		for _, id := range rule.SectionIDs {
			sec, ok := bySection[id]
			if !ok {
				continue
			}
			for _, p := range doc.Pages {
				if uint32(p.PageNumber) >= sec.StartPage && uint32(p.PageNumber) <= sec.EndPage() {
					out = append(out, p)
				}
			}
		}
		return out
	default:
		return nil
	}
}
