package stage

import (
	"regexp"
	"strconv"
	"strings"
)

// Marker is one test line parsed from a report, e.g. "Hemoglobin 13.5 g/dL 13.0-17.0".
type Marker struct {
	Name     string
	Value    float64
	Unit     string
	Low      float64
	High     float64
	HasRange bool
}

// Status is "low", "high", "normal", or "" when no reference range was found.
func (m Marker) Status() string {
	switch {
	case !m.HasRange:
		return ""
	case m.Value < m.Low:
		return "low"
	case m.Value > m.High:
		return "high"
	default:
		return "normal"
	}
}

func (m Marker) String() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteString(": ")
	sb.WriteString(strconv.FormatFloat(m.Value, 'f', -1, 64))
	if m.Unit != "" {
		sb.WriteString(" ")
		sb.WriteString(m.Unit)
	}
	if m.HasRange {
		sb.WriteString(" (reference ")
		sb.WriteString(strconv.FormatFloat(m.Low, 'f', -1, 64))
		sb.WriteString("-")
		sb.WriteString(strconv.FormatFloat(m.High, 'f', -1, 64))
		sb.WriteString(")")
	}
	return sb.String()
}

var markerLine = regexp.MustCompile(
	`^([A-Za-z][A-Za-z .,()%/-]*?)[\s:]+[<>]?(\d+(?:\.\d+)?)` +
		`(?:\s*([A-Za-zµ%/][A-Za-z0-9µ%/^.*]*))?` +
		`(?:\s*[\[(]?(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)[\])]?)?`)

// ParseMarkers returns every line that carries a value with a unit or a
// reference range. Lines without either are ignored.
func ParseMarkers(text string) []Marker {
	var markers []Marker
	for _, line := range strings.Split(text, "\n") {
		m := markerLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || (m[3] == "" && m[4] == "") {
			continue
		}
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		marker := Marker{
			Name:  strings.TrimSpace(strings.TrimRight(m[1], " :-")),
			Value: value,
			Unit:  m[3],
		}
		if m[4] != "" {
			low, errLow := strconv.ParseFloat(m[4], 64)
			high, errHigh := strconv.ParseFloat(m[5], 64)
			if errLow == nil && errHigh == nil && low <= high {
				marker.Low, marker.High, marker.HasRange = low, high, true
			}
		}
		markers = append(markers, marker)
	}
	return markers
}
