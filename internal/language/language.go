package language

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown indicates a language name that has no entry in the table.
// Names are capitalized and case-sensitive ("Persian", not "persian").
var ErrUnknown = errors.New("unknown language")

type entry struct {
	name  string   // Human-readable name, capitalized
	codes []string // Ordered ISO 639 codes; first is canonical
}

// Aliased codes (e.g. "per" vs "fas") all map back to the same name; the
// first code in each set is the one written into containers.
var languages = []entry{
	{"English", []string{"eng"}},
	{"Persian", []string{"per", "fas"}},
	{"French", []string{"fre", "fra"}},
	{"German", []string{"ger", "deu"}},
	{"Spanish", []string{"spa"}},
	{"Italian", []string{"ita"}},
	{"Portuguese", []string{"por"}},
	{"Japanese", []string{"jpn"}},
	{"Korean", []string{"kor"}},
	{"Chinese", []string{"chi", "zho"}},
	{"Russian", []string{"rus"}},
	{"Arabic", []string{"ara"}},
	{"Hindi", []string{"hin"}},
	{"Dutch", []string{"dut", "nld"}},
	{"Polish", []string{"pol"}},
	{"Swedish", []string{"swe"}},
	{"Danish", []string{"dan"}},
	{"Norwegian", []string{"nor"}},
	{"Finnish", []string{"fin"}},
	{"Turkish", []string{"tur"}},
	{"Greek", []string{"gre", "ell"}},
	{"Hebrew", []string{"heb"}},
	{"Czech", []string{"cze", "ces"}},
	{"Hungarian", []string{"hun"}},
	{"Romanian", []string{"rum", "ron"}},
	{"Thai", []string{"tha"}},
	{"Vietnamese", []string{"vie"}},
	{"Indonesian", []string{"ind"}},
	{"Ukrainian", []string{"ukr"}},
	{"Undetermined", []string{"und"}},
}

// Index maps built at init time.
var (
	byName map[string]*entry
	byCode map[string]*entry
)

func init() {
	byName = make(map[string]*entry, len(languages))
	byCode = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byName[e.name] = e
		for _, code := range e.codes {
			if _, exists := byCode[code]; !exists {
				byCode[code] = e
			}
		}
	}
}

// Codes returns the ordered code set for a language name. The first code is
// the canonical output code; the rest are aliases accepted on input.
func Codes(name string) ([]string, error) {
	e, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	codes := make([]string, len(e.codes))
	copy(codes, e.codes)
	return codes, nil
}

// CanonicalCode returns the code written into containers for a language name.
func CanonicalCode(name string) (string, error) {
	e, ok := byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return e.codes[0], nil
}

// NameForCode maps a track language code back to a display name. When code
// aliases overlap the first table entry wins, so the result is not guaranteed
// to round-trip through Codes.
func NameForCode(code string) (string, bool) {
	e, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return "", false
	}
	return e.name, true
}

// Known reports whether a language name has a table entry.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// Matches reports whether a track language code belongs to the named
// language's code set. Unrecognized codes never match.
func Matches(name, code string) bool {
	e, ok := byName[name]
	if !ok {
		return false
	}
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range e.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Names returns every language name in table order.
func Names() []string {
	names := make([]string, 0, len(languages))
	for i := range languages {
		names = append(names, languages[i].name)
	}
	return names
}
