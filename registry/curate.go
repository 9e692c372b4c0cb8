package registry

import (
	"strings"
	"unicode/utf8"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Classification is the metadata the privileged channel merges into a record.
// Oversized input is truncated on accept rather than rejected.
type Classification struct {
	CategoryCode int
	Methods      []Method
	Summary      string
	Domains      []string
	Confidence   int
}

// ClassifiedEvent is emitted after a classification update is committed.
type ClassifiedEvent struct {
	Address    ethcommon.Hash `json:"drainer_address"`
	Category   string         `json:"category"`
	Confidence uint8          `json:"confidence"`
	Timestamp  int64          `json:"timestamp"`
}

// Curate merges c into rec and returns the result. Only classification
// fields change; the report aggregation fields are copied through as-is.
func Curate(rec *Record, c Classification) (*Record, error) {
	if !rec.Exists() {
		return nil, ErrRecordNotFound
	}
	next := rec.Clone()
	next.Classification = CategoryFromCode(c.CategoryCode)
	next.ClassificationMethods = truncateMethods(c.Methods)
	next.ClassificationSummary = truncateText(c.Summary, SummaryCap, summaryRegion)
	next.ClassificationDomains = truncateDomains(c.Domains)
	next.ClassificationConfidence = clampConfidence(c.Confidence)
	return next, nil
}

func truncateMethods(methods []Method) []Method {
	if len(methods) > MethodsCap {
		methods = methods[:MethodsCap]
	}
	return append([]Method{}, methods...)
}

func truncateDomains(domains []string) []string {
	if len(domains) > DomainsCap {
		domains = domains[:DomainsCap]
	}
	out := make([]string, 0, len(domains))
	room := domainPoolRegion
	for _, d := range domains {
		if room < 1 {
			break
		}
		maxBytes := DomainCap
		if room-1 < maxBytes {
			maxBytes = room - 1
		}
		d = truncateText(d, DomainCap, maxBytes)
		out = append(out, d)
		room -= 1 + len(d)
	}
	return out
}

// truncateText keeps at most maxChars characters of s and then drops
// trailing characters until the result fits in maxBytes. A character is
// never split. Invalid UTF-8 is replaced first.
func truncateText(s string, maxChars, maxBytes int) string {
	s = strings.ToValidUTF8(s, string(utf8.RuneError))
	n := 0
	for i := range s {
		if n == maxChars {
			s = s[:i]
			break
		}
		n++
	}
	for len(s) > maxBytes {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}

func clampConfidence(c int) uint8 {
	if c < 0 {
		return 0
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return uint8(c)
}
