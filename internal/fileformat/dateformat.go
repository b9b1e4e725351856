package fileformat

import (
	"regexp"
	"strings"
)

// Source date patterns use YYYY/YY/MM/DD/HH/:MM/SS tokens. They are first
// translated to a strptime-style pattern (the form reports and external
// tooling understand), then to a time.Parse layout for actual parsing.

var dateformatTokens = regexp.MustCompile("HH|:MM|SS|YYYY|YY|MM|DD")

var dateformatMapping = map[string]string{
	":MM":  ":%M", // minutes, only after an hour separator
	"DD":   "%d",
	"MM":   "%m",
	"YYYY": "%Y",
	"YY":   "%y",
	"HH":   "%H",
	"SS":   "%S",
}

// ConvertDateFormat translates a source date pattern into a strptime-style
// pattern. It is a pure text substitution:
//
//	ConvertDateFormat("YYYY-MM-DD HH:MM:SS") == "%Y-%m-%d %H:%M:%S"
func ConvertDateFormat(dateformat string) string {
	return dateformatTokens.ReplaceAllStringFunc(dateformat, func(m string) string {
		return dateformatMapping[m]
	})
}

// strptime directives mapped to their time.Parse layout elements.
var layoutElements = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'M': "04",
	'S': "05",
}

// timeLayout converts a strptime-style pattern into a time.Parse layout.
// Unrecognized directives are kept verbatim and will fail to parse, which
// is reported per-cell as an invalid value.
func timeLayout(strptime string) string {
	var b strings.Builder
	for i := 0; i < len(strptime); i++ {
		c := strptime[i]
		if c == '%' && i+1 < len(strptime) {
			if element, ok := layoutElements[strptime[i+1]]; ok {
				b.WriteString(element)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
