// Package redact scrubs credentials and key material from text that is
// about to be published.
package redact

import (
	"math"
	"regexp"
)

const Redacted = "[REDACTED_SECRET]"

type rule struct {
	name string
	re   *regexp.Regexp
	// keep is the replacement template; empty means Redacted
	keep string
	// entropy, when set, only replaces matches at or above it
	entropy float64
}

// Order matters: whole blocks before fragments.
var rules = []rule{
	{name: "private-key", re: regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]+?-----END (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
	{name: "aws-access-key", re: regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{name: "aws-secret-key", re: regexp.MustCompile(`(?i)aws(.{0,20})?(secret|access)["'\s:=]+[A-Za-z0-9/+=]{32,}`)},
	{name: "github-token", re: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{30,}`)},
	{name: "jwt", re: regexp.MustCompile(`eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)},
	{name: "generic-token", re: regexp.MustCompile(`(?i)(token|secret|password|api[_-]?key|access[_-]?key)(["'\s:=]+)[A-Za-z0-9/+=_\-]{16,}`), keep: "${1}${2}" + Redacted},
	{name: "url-param", re: regexp.MustCompile(`([?&](token|key|secret|sig|signature|access_token|auth)=)[^&\s)]+`), keep: "${1}" + Redacted},
	{name: "base64-blob", re: regexp.MustCompile(`[A-Za-z0-9+/=]{32,}`), entropy: 4.0},
	{name: "hex-blob", re: regexp.MustCompile(`[A-Fa-f0-9]{32,}`), entropy: 3.0},
}

// Result reports what Scrub replaced, by rule name.
type Result struct {
	Text  string
	Hits  map[string]int
	Total int
}

// Scrub replaces every secret-looking token in input.
func Scrub(input string) Result {
	res := Result{Text: input, Hits: map[string]int{}}
	if input == "" {
		return res
	}

	for _, r := range rules {
		r := r
		res.Text = r.re.ReplaceAllStringFunc(res.Text, func(match string) string {
			if match == Redacted {
				return match
			}
			if r.entropy > 0 && entropy(match) < r.entropy {
				return match
			}
			res.Hits[r.name]++
			res.Total++
			if r.keep == "" {
				return Redacted
			}
			return r.re.ReplaceAllString(match, r.keep)
		})
	}
	return res
}

// Redact is Scrub without the bookkeeping.
func Redact(input string) string {
	return Scrub(input).Text
}

func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	length := float64(len([]rune(s)))
	var ent float64
	for _, count := range counts {
		p := float64(count) / length
		ent -= p * math.Log2(p)
	}
	return ent
}
