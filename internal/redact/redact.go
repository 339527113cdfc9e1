// Package redact scrubs host-identifying substrings from captured probe
// output before it lands in a support bundle.
package redact

import (
	"bytes"
	"regexp"
	"strings"

	"bytemomo/remora/internal/domain"
)

// PrivateIPPlaceholder replaces every RFC1918 address. The specific
// address is lost; the fact that a private address appeared is kept.
const PrivateIPPlaceholder = "XXX.PRIV.IP"

// rfc1918 matches 10.0.0.0/8, 172.16.0.0/12 and 192.168.0.0/16 tokens.
var rfc1918 = regexp.MustCompile(`\b(?:10\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}|172\.(?:1[6-9]|2[0-9]|3[01])\.[0-9]{1,3}\.[0-9]{1,3}|192\.168\.[0-9]{1,3}\.[0-9]{1,3})\b`)

// Rule rewrites one class of sensitive token. Exactly one of Literal or
// Pattern is set.
type Rule struct {
	Name    string
	Literal string
	Pattern *regexp.Regexp
	Replace string
}

// Rules builds the rule set for one run. Host name rules that cannot be
// applied safely are dropped rather than failing the run: an empty
// hostname has nothing to scrub, and a hostname contained in its own
// replacement would re-trigger on every pass.
func Rules(rc domain.RunContext) []Rule {
	var rules []Rule
	tag := rc.HostTag()
	if rc.FQDN != "" && rc.FQDN != rc.Hostname {
		if r, ok := literalRule("fqdn", rc.FQDN, tag); ok {
			rules = append(rules, r)
		}
	}
	if r, ok := literalRule("hostname", rc.Hostname, tag); ok {
		rules = append(rules, r)
	}
	rules = append(rules, Rule{
		Name:    "rfc1918",
		Pattern: rfc1918,
		Replace: PrivateIPPlaceholder,
	})
	return rules
}

func literalRule(name, literal, replace string) (Rule, bool) {
	if literal == "" || strings.Contains(replace, literal) {
		return Rule{}, false
	}
	return Rule{Name: name, Literal: literal, Replace: replace}, true
}

// Apply runs every rule, in order, over the input. Idempotent: neither
// the host tag nor the IP placeholder matches any rule, so a second
// pass is a no-op.
func Apply(rules []Rule, in []byte) []byte {
	out := in
	for _, r := range rules {
		if r.Pattern != nil {
			out = r.Pattern.ReplaceAll(out, []byte(r.Replace))
			continue
		}
		out = bytes.ReplaceAll(out, []byte(r.Literal), []byte(r.Replace))
	}
	return out
}

// ApplyString is Apply for callers holding text.
func ApplyString(rules []Rule, in string) string {
	return string(Apply(rules, []byte(in)))
}
