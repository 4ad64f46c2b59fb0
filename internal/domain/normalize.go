package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultWindCorrection is the vane calibration offset in degrees for the
	// station's mounting orientation.
	DefaultWindCorrection = 270

	// MphToKnots converts miles per hour to knots.
	MphToKnots = 0.868976
)

// Result describes how one line was normalized.
type Result struct {
	Record WeatherRecord
	// OK is false when the line carried no recognized field.
	OK bool
	// Ignored holds keys not present in the field table.
	Ignored []string
	// Malformed holds recognized keys whose value failed to parse.
	Malformed []string
}

// Normalizer turns station lines into WeatherRecords. It is safe for
// concurrent use: the only state is its configuration.
type Normalizer struct {
	windCorrection int
	clock          clockwork.Clock
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithWindCorrection sets the calibration offset added to every direction reading.
func WithWindCorrection(deg int) Option {
	return func(n *Normalizer) { n.windCorrection = deg }
}

// WithClock sets the time source used for record timestamps. Nil keeps the real clock.
func WithClock(c clockwork.Clock) Option {
	return func(n *Normalizer) {
		if c != nil {
			n.clock = c
		}
	}
}

// NewNormalizer returns a Normalizer using DefaultWindCorrection and the real clock
// unless overridden.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		windCorrection: DefaultWindCorrection,
		clock:          clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// WindCorrection returns the configured calibration offset.
func (n *Normalizer) WindCorrection() int {
	return n.windCorrection
}

// Normalize parses line and returns the record, or false when nothing in the
// line was recognized.
func (n *Normalizer) Normalize(line RawLine) (WeatherRecord, bool) {
	res := n.Inspect(line)
	return res.Record, res.OK
}

// Inspect is Normalize with a report of skipped keys.
func (n *Normalizer) Inspect(line RawLine) Result {
	var res Result
	if len(line) == 0 {
		return res
	}

	for _, token := range strings.Split(line, ",") {
		parts := strings.Split(token, "=")
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		m, ok := fieldTable[key]
		if !ok {
			if key != "" {
				res.Ignored = append(res.Ignored, key)
			}
			continue
		}

		v, ok := n.apply(m.transform, value)
		if !ok {
			res.Malformed = append(res.Malformed, key)
			continue
		}
		res.Record.Set(m.field, v)
	}

	if res.Record.Len() == 0 {
		return Result{Ignored: res.Ignored, Malformed: res.Malformed}
	}

	res.Record.Timestamp = n.clock.Now()
	res.OK = true
	return res
}

func (n *Normalizer) apply(kind transformKind, value string) (float64, bool) {
	switch kind {
	case transformDirection:
		deg, ok := parseLeadingInt(value)
		if !ok {
			return 0, false
		}
		return float64(WrapDirection(deg, n.windCorrection)), true
	case transformSpeed:
		mph, ok := parseFinite(value)
		if !ok {
			return 0, false
		}
		return mph * MphToKnots, true
	default:
		return parseFinite(value)
	}
}

// WrapDirection adds offset to deg and wraps the sum into [0, 360).
func WrapDirection(deg, offset int) int {
	return ((deg%360)+(offset%360)+720) % 360
}

// parseLeadingInt reads an optional sign followed by base-10 digits and stops
// at the first other character: "90.7" is 90, "12abc" is 12, "abc" fails.
func parseLeadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

// decimalPattern is plain decimal notation with an optional exponent. Hex
// floats, digit separators and named values like "Inf" do not match.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseFinite parses a decimal float and rejects anything else, including
// trailing units ("21.3C") and values that overflow to infinity.
func parseFinite(s string) (float64, bool) {
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
