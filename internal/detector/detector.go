// Package detector extracts highlighted keno numbers from raw page markup.
//
// The monitored page offers no stable structural contract: class names, ids,
// and inline styles may be renamed at any time. The detector therefore layers
// four independent heuristics, cheapest first, and caps the accepted
// cardinality so a full 1-80 grid never masquerades as a highlight.
package detector

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

// False-positive suppression bounds. A set larger than maxSetSize is the
// static grid, and a dense run starting at 1 is a grid fragment.
const (
	maxSetSize     = 15
	gridRunMinSize = 8
	gridRunMinMax  = 10
)

// highlightKeywords mark an element as transiently emphasized when found in
// its class, id, or style attributes.
var highlightKeywords = []string{
	"blink", "flash", "pulse", "shine", "glow",
	"highlight", "active", "selected", "current", "new", "preview", "nextdraw",
}

// animationKeywords mark an inline style as animated.
var animationKeywords = []string{"animation", "blink", "flash", "glow", "pulse"}

// structuralKeywords are weaker signals: layout vocabulary that qualifies an
// element only when its own text is a bare number.
var structuralKeywords = []string{
	"preview", "next", "upcoming", "live", "result", "draw", "keno", "game",
}

// containerKeywords name preview-style containers whose text is mined for
// numbers when nothing else matched.
var containerKeywords = []string{"preview", "next", "upcoming", "temp", "short", "live"}

// Detector implements monitor.Detector over raw markup.
type Detector struct {
	highlight  []string
	structural []string
	containers []string
	patterns   []*regexp.Regexp
}

// New constructs a Detector with the standard keyword lexicons.
func New() *Detector {
	return &Detector{
		highlight:  lowerAll(highlightKeywords),
		structural: lowerAll(structuralKeywords),
		containers: lowerAll(containerKeywords),
		patterns:   compilePatterns(highlightKeywords, animationKeywords),
	}
}

// Detect returns the set of highlighted numbers found in markup. It never
// fails: malformed markup and internal errors map to the empty set, and two
// calls on identical markup yield identical sets.
func (d *Detector) Detect(markup string) monitor.HighlightSet {
	candidates := d.collect(markup)
	candidates = suppressFalsePositives(candidates)
	values := make([]int, 0, len(candidates))
	for v := range candidates {
		values = append(values, v)
	}
	return monitor.NewHighlightSet(values...)
}

// collect runs the strategies in priority order: the raw pattern scan and
// the structured element scan always run and merge; the container and
// whole-page fallbacks fire only while the candidate set is still empty.
func (d *Detector) collect(markup string) (out map[int]struct{}) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()

	out = make(map[int]struct{})
	d.scanPatterns(markup, out)

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup)); err == nil {
		d.scanElements(doc, out)
		if len(out) == 0 {
			d.scanContainers(doc, out)
		}
	}

	if len(out) == 0 {
		d.scanWholePage(markup, out)
	}
	return out
}

// scanPatterns is the raw-text strategy: regex pairs that couple a highlight
// keyword in a class or style attribute with a one-or-two-digit number right
// after the opening tag.
func (d *Detector) scanPatterns(markup string, out map[int]struct{}) {
	for _, pattern := range d.patterns {
		for _, match := range pattern.FindAllStringSubmatch(markup, -1) {
			addIfInRange(out, match[1])
		}
	}
}

// scanElements walks the element tree and keeps every element whose class,
// id, or style carries a highlight signal and whose own text is a bare
// number.
func (d *Detector) scanElements(doc *goquery.Document, out map[int]struct{}) {
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		style, _ := sel.Attr("style")
		if !d.highlighted(class, id, style) {
			return
		}
		addIfInRange(out, strings.TrimSpace(sel.Text()))
	})
}

func (d *Detector) highlighted(class, id, style string) bool {
	attrs := strings.ToLower(class + " " + id + " " + style)
	if containsAny(attrs, d.highlight) {
		return true
	}
	if containsAny(attrs, d.structural) {
		return true
	}
	return containsAny(strings.ToLower(style), animationKeywords)
}

// scanContainers mines preview-style containers for numbers. A container
// yielding more than maxSetSize distinct numbers is the full grid and is
// ignored.
func (d *Detector) scanContainers(doc *goquery.Document, out map[int]struct{}) {
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		class, ok := sel.Attr("class")
		if !ok || !containsAny(strings.ToLower(class), d.containers) {
			return
		}
		nums := extractNumbers(sel.Text())
		if len(nums) == 0 || len(nums) > maxSetSize {
			return
		}
		for _, n := range nums {
			out[n] = struct{}{}
		}
	})
}

// scanWholePage is the last resort: if the whole document holds only a small
// subset of the 1-80 space, that subset is the highlight; a page showing the
// full grid yields no signal.
func (d *Detector) scanWholePage(markup string, out map[int]struct{}) {
	nums := extractNumbers(markup)
	if len(nums) == 0 || len(nums) > maxSetSize {
		return
	}
	for _, n := range nums {
		out[n] = struct{}{}
	}
}

// suppressFalsePositives applies the cardinality cap and the sequential-grid
// signature after all strategies merged. Both rules are idempotent and order
// independent.
func suppressFalsePositives(candidates map[int]struct{}) map[int]struct{} {
	if len(candidates) == 0 {
		return candidates
	}
	if len(candidates) > maxSetSize {
		return nil
	}
	lo, hi := monitor.MaxNumber, monitor.MinNumber
	for n := range candidates {
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	if lo == monitor.MinNumber && hi >= gridRunMinMax && len(candidates) >= gridRunMinSize {
		return nil
	}
	return candidates
}

// numberPattern matches exactly the integers 1 through 80.
var numberPattern = regexp.MustCompile(`\b([1-9]|[1-7][0-9]|80)\b`)

// extractNumbers returns the distinct in-range numbers found in text, in
// order of first appearance.
func extractNumbers(text string) []int {
	matches := numberPattern.FindAllString(text, -1)
	seen := make(map[int]struct{}, len(matches))
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func addIfInRange(out map[int]struct{}, text string) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return
	}
	if n >= monitor.MinNumber && n <= monitor.MaxNumber {
		out[n] = struct{}{}
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func compilePatterns(classWords, styleWords []string) []*regexp.Regexp {
	classAlt := strings.Join(classWords, "|")
	styleAlt := strings.Join(styleWords, "|")
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)class="[^"]*(?:` + classAlt + `)[^"]*"[^>]*>\s*(\d{1,2})\s*<`),
		regexp.MustCompile(`(?i)style="[^"]*(?:` + styleAlt + `)[^"]*"[^>]*>\s*(\d{1,2})\s*<`),
		regexp.MustCompile(`(?i)<[^>]*(?:blink|flash|pulse)[^>]*>\s*(\d{1,2})\s*<`),
	}
}
