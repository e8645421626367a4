package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2/T
	alt3    string // ISO 639-2/B where it differs
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"nl", "nld", "dut", "Dutch"},
	{"ja", "jpn", "", "Japanese"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"pl", "pol", "", "Polish"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[e.code3] = e
		if e.alt3 != "" {
			m[e.alt3] = e
		}
		m[strings.ToLower(e.display)] = e
	}
	return m
}()

// ToISO2 resolves a language code, English name, or BCP 47 tag such as
// "en-US" or "pt_BR" to its two-letter code. Unknown input returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e, ok := index[code]; ok {
		return e.code2
	}
	tag, err := xlang.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	if e, ok := index[base.String()]; ok {
		return e.code2
	}
	if iso3 := base.ISO3(); iso3 != "" {
		if e, ok := index[iso3]; ok {
			return e.code2
		}
	}
	if s := base.String(); len(s) == 2 {
		return s
	}
	return ""
}

// DisplayName returns a readable name for a code, or the uppercased input.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e, ok := index[ToISO2(trimmed)]; ok {
		return e.display
	}
	return strings.ToUpper(trimmed)
}

// OrDefault returns the two-letter code for code, or fallback when code does
// not resolve.
func OrDefault(code, fallback string) string {
	if iso := ToISO2(code); iso != "" {
		return iso
	}
	return fallback
}
