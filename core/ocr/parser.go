package ocr

import (
	"math"
	"regexp"
	"strings"
)

// Species recognised on a Wildursprungsschein.
var Species = []string{"Rotwild", "Damwild", "Rehwild", "Schwarzwild"}

var (
	wusRegex          = regexp.MustCompile(`\b\d{7}\b`)
	dateRegex         = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{2,4}\b`)
	altersklasseRegex = regexp.MustCompile(`\b[0-4]\b`)
	nonDigitRegex     = regexp.MustCompile(`\D`)

	wusKeywordRegex     = keywordRegex("Wildmarkennummer", "WUS")
	erlegungsdatumRegex = keywordRegex("Erlegungsdatum")
	maennlichRegex      = keywordRegex("männlich")
	weiblichRegex       = keywordRegex("weiblich")
	speciesRegexes      = make([]*regexp.Regexp, len(Species))

	// number of fields ParseText tries to extract, used for the confidence
	parsedFieldCount = 7
)

func init() {
	for i, s := range Species {
		speciesRegexes[i] = keywordRegex(s)
	}
}

// keywordRegex matches any of `keywords`, ignoring case.
func keywordRegex(keywords ...string) *regexp.Regexp {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}

// lineRule extracts a field from a single line; ok is false when the rule does not apply to the line.
// A rule that applies but yields an empty value consumes the line without changing the result.
type lineRule func(line string, r *Result) (ok bool)

// lineRules are tried in order; the first rule applying to a line wins.
var lineRules = []lineRule{
	wusRule,
	wusKeywordRule,
	speciesRule,
	dateRule,
	keywordRestRule(func(r *Result, v string) { r.Jagdgebiet = v }, "Jagdgebiet", "Revier"),
	keywordRestRule(func(r *Result, v string) { r.Erleger = v }, "Erleger"),
	geschlechtRule,
	altersklasseRule,
}

// ParseText extracts the Wildursprungsschein fields from recognised text, line by line.
// Later lines overwrite values found on earlier ones.
func ParseText(text string) Result {
	res := Result{RawText: text}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, rule := range lineRules {
			if rule(line, &res) {
				break
			}
		}
	}
	res.Confidence = parsedConfidence(res)
	return res
}

func wusRule(line string, r *Result) bool {
	m := wusRegex.FindString(line)
	if m == "" {
		return false
	}
	r.WUSNummer = m
	return true
}

func wusKeywordRule(line string, r *Result) bool {
	loc := wusKeywordRegex.FindStringIndex(line)
	if loc == nil {
		return false
	}
	// digits may be separated by blanks, e.g. "WUS-Nr.: 123 4567"
	if digits := nonDigitRegex.ReplaceAllString(line[loc[1]:], ""); len(digits) == 7 {
		r.WUSNummer = digits
	}
	return true
}

func speciesRule(line string, r *Result) bool {
	for i, re := range speciesRegexes {
		if re.MatchString(line) {
			r.Wildart = Species[i]
			return true
		}
	}
	return false
}

func dateRule(line string, r *Result) bool {
	m := dateRegex.FindString(line)
	if m == "" && !erlegungsdatumRegex.MatchString(line) {
		return false
	}
	if m != "" {
		r.Datum = m
	}
	return true
}

func keywordRestRule(set func(r *Result, v string), keywords ...string) lineRule {
	re := keywordRegex(keywords...)
	return func(line string, r *Result) bool {
		loc := re.FindStringIndex(line)
		if loc == nil {
			return false
		}
		rest := strings.TrimLeft(strings.TrimSpace(line[loc[1]:]), ":-– ")
		if rest = strings.TrimSpace(rest); rest != "" {
			set(r, rest)
		}
		return true
	}
}

func geschlechtRule(line string, r *Result) bool {
	switch {
	case maennlichRegex.MatchString(line):
		r.Geschlecht = "männlich"
	case weiblichRegex.MatchString(line):
		r.Geschlecht = "weiblich"
	default:
		return false
	}
	return true
}

func altersklasseRule(line string, r *Result) bool {
	m := altersklasseRegex.FindString(line)
	if m == "" {
		return false
	}
	r.Altersklasse = m
	return true
}

func parsedConfidence(r Result) float64 {
	var found int
	for _, v := range []string{r.WUSNummer, r.Wildart, r.Datum, r.Jagdgebiet, r.Erleger, r.Geschlecht, r.Altersklasse} {
		if v != "" {
			found++
		}
	}
	return math.Round(float64(found)/float64(parsedFieldCount)*100) / 100
}
