package brand

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type MatchTier string

const (
	MatchExact      MatchTier = "exact"
	MatchRule       MatchTier = "rule"
	MatchNormalized MatchTier = "normalized"
	MatchPartial    MatchTier = "partial"
	MatchDefault    MatchTier = "default"
)

// minPartialKey keeps short keys such as "fes" from matching inside
// unrelated words during the partial pass.
const minPartialKey = 4

type Rule struct {
	Name    string
	Match   func(raw, lower string) bool
	Profile string
}

func containsAny(s string, parts ...string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// DefaultRules catch spellings that arrive mangled from messaging clients.
// They run before any normalization, in order.
var DefaultRules = []Rule{
	{
		Name: "javier_bazan",
		Match: func(raw, lower string) bool {
			return strings.Contains(lower, "javier") && containsAny(lower, "baz", "bazan", "bazán")
		},
		Profile: "CONSULTOR: Javier Bazán",
	},
	{
		Name: "ehecatl_low9_quote",
		Match: func(raw, lower string) bool {
			return strings.ContainsRune(raw, '\u201a')
		},
		Profile: "Corporativo Ehécatl SA de CV",
	},
	{
		Name: "ehecatl_corporativo",
		Match: func(raw, lower string) bool {
			return strings.Contains(lower, "corporativo") && containsAny(lower, "eh", "catl")
		},
		Profile: "Corporativo Ehécatl SA de CV",
	},
}

type Resolution struct {
	Profile *Profile
	Tier    MatchTier
}

type Resolver struct {
	reg   *Registry
	rules []Rule
}

func NewResolver(reg *Registry, rules []Rule) *Resolver {
	if rules == nil {
		rules = DefaultRules
	}
	return &Resolver{reg: reg, rules: rules}
}

// Resolve never fails: unknown or blank input resolves to the default profile.
func (r *Resolver) Resolve(ctx context.Context, raw string) Resolution {
	res := r.resolve(raw)
	if res.Tier == MatchDefault && strings.TrimSpace(raw) != "" {
		logutil.GetLogger(ctx).Warn("brand not recognized, using default profile",
			zap.String("brand", raw), zap.String("key", Normalize(raw)))
	}
	return res
}

func (r *Resolver) resolve(raw string) Resolution {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Resolution{Profile: r.reg.Default(), Tier: MatchDefault}
	}
	if p, ok := r.reg.Get(trimmed); ok {
		return Resolution{Profile: p, Tier: MatchExact}
	}
	lower := strings.ToLower(trimmed)
	for _, rule := range r.rules {
		if !rule.Match(trimmed, lower) {
			continue
		}
		if p, ok := r.reg.Get(rule.Profile); ok {
			return Resolution{Profile: p, Tier: MatchRule}
		}
	}
	key := Normalize(trimmed)
	if key == "" {
		return Resolution{Profile: r.reg.Default(), Tier: MatchDefault}
	}
	if p, ok := r.reg.byKey[key]; ok {
		return Resolution{Profile: p, Tier: MatchNormalized}
	}
	for _, kp := range r.reg.keys {
		if len(kp.key) >= minPartialKey && strings.Contains(key, kp.key) {
			return Resolution{Profile: kp.profile, Tier: MatchPartial}
		}
		if len(key) >= minPartialKey && strings.Contains(kp.key, key) {
			return Resolution{Profile: kp.profile, Tier: MatchPartial}
		}
	}
	return Resolution{Profile: r.reg.Default(), Tier: MatchDefault}
}
