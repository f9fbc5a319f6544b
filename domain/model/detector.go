package model

import (
	"strings"
)

// Detection constants
const (
	// DefaultSampleLines is the number of leading lines inspected by the detector
	DefaultSampleLines = 20
	// DefaultOutlierTolerance is the share of sampled lines allowed to disagree
	// with the dominant field count
	DefaultOutlierTolerance = 0.1
)

// DefaultSeparators are the candidate separators in priority order
var DefaultSeparators = []rune{',', ';', '\t', '|'}

// candidateQualifiers are the quote characters the detector recognizes
var candidateQualifiers = []rune{'"', '\''}

// Detector infers FormatSettings from raw text.
type Detector struct {
	// SampleLines is the number of leading lines inspected
	SampleLines int
	// Separators are tried in order, the first consistent one wins
	Separators []rune
	// OutlierTolerance is the share (0.0-1.0) of sampled records allowed to
	// have a different field count
	OutlierTolerance float64
}

// NewDetector returns a Detector sampling sampleLines lines (at least DefaultSampleLines).
func NewDetector(sampleLines int) *Detector {
	if sampleLines < DefaultSampleLines {
		sampleLines = DefaultSampleLines
	}
	return &Detector{
		SampleLines:      sampleLines,
		Separators:       DefaultSeparators,
		OutlierTolerance: DefaultOutlierTolerance,
	}
}

// Detect infers the format of text with the default detector.
func Detect(text string) Detection {
	return NewDetector(DefaultSampleLines).Detect(text)
}

// Detect returns the separator (and qualifier) or fixed-width layout of text,
// or Undetected when neither fits. text is not modified.
func (d *Detector) Detect(text string) Detection {
	sample, truncated := samplePrefix(strings.TrimPrefix(text, byteOrderMark), d.sampleLines())
	if strings.TrimSpace(sample) == "" {
		return Undetected()
	}

	// Fewest outliers wins, priority order breaks ties.
	var best FormatSettings
	bestOutliers := -1
	for _, sep := range d.separators() {
		qual := detectQualifier(dropPartial(splitDelimited(sample, sep, 0), truncated))
		records := dropPartial(splitDelimited(sample, sep, qual), truncated)
		outliers, ok := d.consistent(records)
		if !ok || (bestOutliers >= 0 && outliers >= bestOutliers) {
			continue
		}
		best, bestOutliers = NewDelimitedSettings(sep, qual), outliers
		if outliers == 0 {
			break
		}
	}
	if bestOutliers >= 0 {
		return Detected(best)
	}

	if widths, ok := detectFixedWidths(sample, truncated); ok {
		return Detected(NewFixedWidthSettings(widths...))
	}
	return Undetected()
}

func (d *Detector) sampleLines() int {
	if d.SampleLines <= 0 {
		return DefaultSampleLines
	}
	return d.SampleLines
}

func (d *Detector) separators() []rune {
	if len(d.Separators) == 0 {
		return DefaultSeparators
	}
	return d.Separators
}

// consistent reports whether records share one field count greater than one,
// allowing a tolerated share of outliers among the data records, and returns
// the number of outliers. The header must always have the common field count.
// A single record proves nothing.
func (d *Detector) consistent(records []rawRecord) (int, bool) {
	if len(records) < 2 {
		return 0, false
	}

	counts := make(map[int]int)
	for _, rec := range records {
		counts[len(rec.fields)]++
	}
	mode, modeCount := 0, 0
	for n, c := range counts {
		if c > modeCount || (c == modeCount && n > mode) {
			mode, modeCount = n, c
		}
	}
	if mode <= 1 || len(records[0].fields) != mode {
		return 0, false
	}

	outliers := len(records) - modeCount
	allowed := int(float64(len(records)) * d.OutlierTolerance)
	return outliers, outliers <= allowed
}

// samplePrefix returns at most n+1 leading lines of text and whether text was cut
func samplePrefix(text string, n int) (string, bool) {
	count := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		count++
		if count == n+1 {
			return text[:i+1], i+1 < len(text)
		}
	}
	return text, false
}

// dropPartial drops the last record of a cut sample, it may be incomplete
func dropPartial(records []rawRecord, truncated bool) []rawRecord {
	if truncated && len(records) > 1 {
		return records[:len(records)-1]
	}
	return records
}

// detectQualifier returns the quote character that both opens and closes
// fields of records split without quoting, or 0.
func detectQualifier(records []rawRecord) rune {
	for _, q := range candidateQualifiers {
		opens, closes := 0, 0
		for _, rec := range records {
			for _, f := range rec.fields {
				f = strings.TrimSpace(f)
				if f == "" {
					continue
				}
				if strings.HasPrefix(f, string(q)) {
					opens++
				}
				if strings.HasSuffix(f, string(q)) {
					closes++
				}
			}
		}
		if opens > 0 && closes > 0 {
			return q
		}
	}
	return 0
}

// detectFixedWidths finds columns separated by character offsets that hold a
// space in every sampled line. At least one internal boundary must exist and
// every line must reach it.
func detectFixedWidths(sample string, truncated bool) ([]int, bool) {
	var lines [][]rune
	all := splitLines(sample)
	if truncated && len(all) > 1 {
		all = all[:len(all)-1]
	}
	maxLen := 0
	for _, l := range all {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			continue
		}
		r := []rune(l)
		lines = append(lines, r)
		if len(r) > maxLen {
			maxLen = len(r)
		}
	}
	if len(lines) < 2 {
		return nil, false
	}

	blank := make([]bool, maxLen)
	for o := range maxLen {
		blank[o] = true
		for _, l := range lines {
			if o < len(l) && l[o] != ' ' {
				blank[o] = false
				break
			}
		}
	}

	starts := []int{0}
	for o := 1; o < maxLen; o++ {
		if blank[o-1] && !blank[o] {
			starts = append(starts, o)
		}
	}
	if len(starts) < 2 {
		return nil, false
	}
	// The first internal boundary must be present in every line.
	for _, l := range lines {
		if len(l) < starts[1] {
			return nil, false
		}
	}

	widths := make([]int, len(starts))
	for i := range starts {
		if i+1 < len(starts) {
			widths[i] = starts[i+1] - starts[i]
		} else {
			widths[i] = maxLen - starts[i]
		}
	}
	return widths, true
}
