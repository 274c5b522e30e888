package brand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_Fixtures(t *testing.T) {
	cases := map[string]string{
		"":                                             "",
		"   ":                                          "",
		"Acme":                                         "acme",
		"Beta Corp.":                                   "betacorp",
		"CONSULTOR: Javier Bazán":                      "consultorjavierbazan",
		"Javier Bazán":                                 "javierbazan",
		"Fundación Desarrollemos México":               "fundaciondesarrollemosmexico",
		"Universidad para el Desarrollo Digital (UDD)": "universidadparaeldesarrollodigitaludd",
		"Frente Estudiantil Social (FES)":              "frenteestudiantilsocialfes",
		"Corporativo Ehécatl SA de CV":                 "corporativoehecatlsadecv",
		"Corporativo Eh\u201acatl SA de CV":            "corporativoehecatlsadecv",
		"Eh\u0082catl":                                 "corporativoehecatlsadecv",
		"Eh\u201acatl":                                 "corporativoehecatlsadecv",
		"ehécatl":                                      "corporativoehecatlsadecv",
		"EHECATL":                                      "corporativoehecatlsadecv",
		"FundaciÃ³n":                                   "fundacion",
		"\u201cAcme\u201d \u2013 Labs":                 "acmelabs",
		"Café":                                        "cafe",
	}
	for in, want := range cases {
		require.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"CONSULTOR: Javier Bazán",
		"Corporativo Eh\u201acatl SA de CV",
		"Ñandú Ltda.",
		"Frente Estudiantil Social (FES)",
		" Acme\u2014Beta ",
		"123 Numbers",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestParseRegistry_RequiresDefault(t *testing.T) {
	_, err := ParseRegistry([]byte(`[{"name": "acme"}]`))
	require.Error(t, err)

	_, err = ParseRegistry([]byte(`[{"name": "default"}, {"name": "default"}]`))
	require.Error(t, err)

	reg, err := ParseRegistry([]byte(`[{"name": "Acme", "aliases": ["ACME Inc"]}, {"name": "default"}]`))
	require.NoError(t, err)
	require.Len(t, reg.Profiles(), 2)
	require.True(t, reg.Default().IsDefault())
	require.Equal(t, "", reg.Default().Key())
}

func TestDefaultRegistry_KeysMatchNormalizedNames(t *testing.T) {
	reg := DefaultRegistry()
	for _, p := range reg.Profiles() {
		if p.IsDefault() {
			continue
		}
		require.NotEmpty(t, p.Key())
		require.NotEmpty(t, p.FallbackLLMError, p.Name)
		require.NotEmpty(t, p.FallbackNoContext, p.Name)
		require.Contains(t, p.Greeting, "[Nombre]", p.Name)
	}
}

func TestResolver_Tiers(t *testing.T) {
	r := NewResolver(DefaultRegistry(), nil)
	ctx := context.Background()
	cases := []struct {
		in      string
		profile string
		tier    MatchTier
	}{
		{"Corporativo Ehécatl SA de CV", "Corporativo Ehécatl SA de CV", MatchExact},
		{"javier bazan", "CONSULTOR: Javier Bazán", MatchRule},
		{"Consultor JAVIER BAZÁN", "CONSULTOR: Javier Bazán", MatchRule},
		{"Eh\u201acatl", "Corporativo Ehécatl SA de CV", MatchRule},
		{"corporativo ehecatl", "Corporativo Ehécatl SA de CV", MatchRule},
		{"UDD", "Universidad para el Desarrollo Digital (UDD)", MatchNormalized},
		{"frente estudiantil social", "Frente Estudiantil Social (FES)", MatchNormalized},
		{"Fundacion Desarrollemos Mexico AC", "Fundación Desarrollemos México A.C.", MatchNormalized},
		{"desarrollemos", "Fundación Desarrollemos México A.C.", MatchPartial},
		{"la universidad para el desarrollo digital en linea", "Universidad para el Desarrollo Digital (UDD)", MatchPartial},
		{"profesional", DefaultProfileName, MatchDefault},
		{"Unknown Brand", DefaultProfileName, MatchDefault},
		{"", DefaultProfileName, MatchDefault},
		{"!!!", DefaultProfileName, MatchDefault},
	}
	for _, tc := range cases {
		res := r.Resolve(ctx, tc.in)
		require.Equal(t, tc.profile, res.Profile.Name, "input %q", tc.in)
		require.Equal(t, tc.tier, res.Tier, "input %q", tc.in)
	}
}

func TestResolver_CustomRules(t *testing.T) {
	reg, err := ParseRegistry([]byte(`[{"name": "Acme"}, {"name": "default"}]`))
	require.NoError(t, err)
	r := NewResolver(reg, []Rule{{
		Name:    "roadrunner",
		Match:   func(raw, lower string) bool { return lower == "beep beep" },
		Profile: "Acme",
	}})
	require.Equal(t, "Acme", r.Resolve(context.Background(), "Beep Beep").Profile.Name)
	require.Equal(t, MatchNormalized, r.Resolve(context.Background(), "ACME").Tier)
}
