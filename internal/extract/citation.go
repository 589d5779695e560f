package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/plagscan/internal/model"
)

// Citation styles reported to the user.
const (
	StyleAuthorDate = "Author-Date (APA/MLA-like)"
	StyleNumeric    = "IEEE / Numeric"
	StyleFootnote   = "Footnote / Numeric"
	StyleEtAl       = "Author + et al."
	quotedPrefix    = "Quoted + "
)

type citationRule struct {
	re    *regexp.Regexp
	style string
}

// Order matters: the first rule that matches names the style.
var citationRules = []citationRule{
	{regexp.MustCompile(`(?i)\([A-Z][a-z]+,\s?\d{4}\)`), StyleAuthorDate},
	{regexp.MustCompile(`(?i)\([A-Z][a-z]+\s\d{4}\)`), StyleAuthorDate},
	{regexp.MustCompile(`(?i)\[[0-9]+\]`), StyleNumeric},
	{regexp.MustCompile(`(?i)[A-Z][a-z]+\s\d{4},\s?\d+–\d+`), StyleAuthorDate},
	{regexp.MustCompile(`(?i)\d+\s?[A-Z][a-z]+\s?\d{4}`), StyleFootnote},
	{regexp.MustCompile(`(?i)\bet al\.`), StyleEtAl},
	{regexp.MustCompile(`(?i)\d+\.`), StyleFootnote},
}

const quoteChars = "\"'“”‘’"

// CitationDetector decides whether a chunk carries an academic citation.
type CitationDetector struct {
	minChars int
}

// NewCitationDetector returns a detector that ignores chunks shorter than minChars.
func NewCitationDetector(minChars int) *CitationDetector {
	return &CitationDetector{minChars: minChars}
}

// Detect returns the verdict for chunk.
func (d *CitationDetector) Detect(chunk string) model.CitationVerdict {
	if RuneLen(strings.TrimSpace(chunk)) < d.minChars {
		return model.CitationVerdict{}
	}

	for _, rule := range citationRules {
		if !rule.re.MatchString(chunk) {
			continue
		}
		style := rule.style
		if strings.ContainsAny(chunk, quoteChars) {
			style = quotedPrefix + style
		}
		return model.CitationVerdict{IsCited: true, Style: style}
	}

	return model.CitationVerdict{}
}
