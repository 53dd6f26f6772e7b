package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts "H:MM:SS(.fff)" or "MM:SS(.fff)" to seconds. The decimal
// separator may be "." or "," (the SRT convention). Anything else parses to 0:
// one malformed timestamp must not abort a whole subtitle file.
func Parse(text string) float64 {
	t := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	parts := strings.Split(t, ":")

	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		s, err3 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || s < 0 {
			return 0
		}
		return float64(h)*3600 + float64(m)*60 + s
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		s, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || m < 0 || s < 0 {
			return 0
		}
		return float64(m)*60 + s
	default:
		return 0
	}
}

// Format renders seconds as "H:MM:SS.ff".
func Format(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	cs := int((sec-float64(total))*100 + 0.5)
	if cs >= 100 {
		cs = 0
		s++
		if s == 60 {
			s = 0
			m++
			if m == 60 {
				m = 0
				h++
			}
		}
	}
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// FormatOptional renders an absent value as the literal "unknown" so a missing
// capture time never reaches prompt text as an empty string.
func FormatOptional(sec *float64) string {
	if sec == nil {
		return "unknown"
	}
	return Format(*sec)
}
