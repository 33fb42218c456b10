package resources

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/SammMarshall/samsbet/internal/logger"
	"github.com/SammMarshall/samsbet/pkg/protocol"
	"github.com/SammMarshall/samsbet/pkg/util/odds"
)

const (
	AsianLinesURI = "samsbet://guides/asian-lines"
	CountersURI   = "samsbet://guides/counters"
)

// ErrUnknownResource is returned by Read for a URI nobody registered
var ErrUnknownResource = errors.New("resource not found")

// Registry holds the read-only documents published by the server
type Registry struct {
	byURI map[string]protocol.Resource
}

// NewRegistry returns a registry with the built in guides
func NewRegistry() *Registry {
	r := &Registry{byURI: map[string]protocol.Resource{}}
	r.Add(AsianLinesResource())
	r.Add(CountersResource())
	return r
}

// Add publishes a resource, replacing any with the same URI
func (r *Registry) Add(res protocol.Resource) {
	r.byURI[res.URI] = res
	logger.Debug("Registered resource:", res.URI)
}

// List returns the resources ordered by URI
func (r *Registry) List() []protocol.Resource {
	out := make([]protocol.Resource, 0, len(r.byURI))
	for _, res := range r.byURI {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Read returns the contents of the resource at uri
func (r *Registry) Read(uri string) (protocol.ResourceContents, error) {
	res, ok := r.byURI[uri]
	if !ok {
		return protocol.ResourceContents{}, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}
	return protocol.ResourceContents{URI: res.URI, MimeType: res.MimeType, Text: res.Text}, nil
}

// AsianLinesResource explains how over/under lines from 1.0 to 4.0 settle
func AsianLinesResource() protocol.Resource {
	return protocol.Resource{
		URI:         AsianLinesURI,
		Name:        "asian_lines_guide",
		Description: "How Asian over/under goal lines settle and how to read fair odds",
		MimeType:    "text/markdown",
		Text:        AsianLinesGuide(lineRange(1, 4)),
	}
}

func lineRange(from, to float64) []float64 {
	var lines []float64
	for l := from; l <= to+1e-9; l += 0.25 {
		lines = append(lines, l)
	}
	return lines
}

// AsianLinesGuide renders the settlement table of every line in markdown.
// Lines that are not multiples of 0.25 are skipped.
func AsianLinesGuide(lines []float64) string {
	var b strings.Builder
	b.WriteString("### Reading Asian goal lines\n\n")
	b.WriteString("- A goal line is the total number of goals the market is built around.\n")
	b.WriteString("- **Over** wins when the match ends with more goals than the line.\n")
	b.WriteString("- **Under** wins when it ends with fewer.\n\n")
	b.WriteString("#### Settlement per line\n\n")
	for _, line := range lines {
		kind, err := odds.ClassifyLine(line)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "- **Line %s** (Over | Under)\n", formatLine(line))
		for _, row := range settlement(line, kind) {
			fmt.Fprintf(&b, "  - %s: %s | %s\n", row.goals, row.over, row.under)
		}
	}
	b.WriteString("\n#### Using fair odds\n\n")
	b.WriteString("Compare the fair odd with the bookmaker's price. A bookmaker odd above the fair odd is a potential value bet, ")
	b.WriteString("one below it means the bookmaker is pricing the outcome too short.\n")
	b.WriteString("For whole and quarter lines the probabilities shown are break-even probabilities, so over and under always add up to 1.\n")
	return b.String()
}

type settlementRow struct {
	goals, over, under string
}

func settlement(line float64, kind odds.LineKind) []settlementRow {
	n := int(math.Floor(line))
	switch kind {
	case odds.HalfLine:
		return []settlementRow{
			{goalsUpTo(n), "loses", "wins"},
			{goalsFrom(n + 1), "wins", "loses"},
		}
	case odds.WholeLine:
		return withLower(n, settlementRow{goalsExactly(n), "push", "push"}, n+1)
	case odds.QuarterLowLine:
		return withLower(n, settlementRow{goalsExactly(n), "loses half", "wins half"}, n+1)
	default:
		return withLower(n+1, settlementRow{goalsExactly(n + 1), "wins half", "loses half"}, n+2)
	}
}

// withLower prepends the outright under rows below pivot and appends the
// outright over rows from top
func withLower(pivot int, mid settlementRow, top int) []settlementRow {
	var rows []settlementRow
	if pivot > 0 {
		rows = append(rows, settlementRow{goalsUpTo(pivot - 1), "loses", "wins"})
	}
	rows = append(rows, mid)
	return append(rows, settlementRow{goalsFrom(top), "wins", "loses"})
}

func goalsUpTo(n int) string {
	if n == 0 {
		return "0 goals"
	}
	return fmt.Sprintf("0-%d goals", n)
}

func goalsExactly(n int) string {
	if n == 1 {
		return "1 goal"
	}
	return fmt.Sprintf("%d goals", n)
}

func goalsFrom(n int) string {
	return fmt.Sprintf("%d+ goals", n)
}

func formatLine(l float64) string {
	if l == math.Trunc(l) {
		return fmt.Sprintf("%.1f", l)
	}
	return strings.TrimRight(fmt.Sprintf("%.2f", l), "0")
}

var counterDescriptions = map[string]string{
	odds.TotalShots:           "shots of any kind",
	odds.ShotsOnTarget:        "shots on target",
	odds.Saves:                "goalkeeper saves",
	odds.GoalsFor:             "goals scored",
	odds.GoalsAgainst:         "goals conceded",
	odds.GoalsScored:          "goals scored per the season statistics, used for big chance conversion",
	odds.CornersFor:           "corners won",
	odds.CornersAgainst:       "corners conceded",
	odds.ExpectedGoals:        "expected goals (xG)",
	odds.MinutesPlayed:        "minutes on the pitch",
	odds.CleanSheets:          "matches without conceding",
	odds.BigChances:           "big chances",
	odds.BigChancesCreated:    "big chances created",
	odds.ShotsInsideBox:       "shots from inside the box",
	odds.PenaltyGoals:         "goals from penalties",
	odds.ShotsAgainst:         "shots conceded",
	odds.ShotsOnTargetAgainst: "shots on target conceded",
	odds.MatchesStarted:       "matches in the starting eleven",
	odds.Appearances:          "matches played",
}

// CountersResource lists the counter names accepted by the odds tools
func CountersResource() protocol.Resource {
	names := make([]string, 0, len(counterDescriptions))
	for k := range counterDescriptions {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("### Counters\n\nCounters are cumulative totals over `matchesPlayed` games.\n\n")
	for _, n := range names {
		fmt.Fprintf(&b, "- `%s`: %s\n", n, counterDescriptions[n])
	}
	return protocol.Resource{
		URI:         CountersURI,
		Name:        "counters",
		Description: "Counter names understood by the odds engine",
		MimeType:    "text/markdown",
		Text:        b.String(),
	}
}
