package prompt

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/brand"
	"github.com/xxxsen/brandbot/internal/model"
)

const (
	maxHistoryTurns  = 6
	maxSignatureLen  = 70
	namePlaceholder  = "[Nombre]"
	defaultSignature = "Asistente Virtual"

	defaultPersona         = "Un asistente útil."
	defaultGreeting        = "¡Hola! ¿Cómo puedo ayudarte?"
	defaultFollowUp        = "Sí, dime."
	defaultLengthGuidance  = "Sé conciso en tu respuesta (3 a 5 frases)."
	defaultEmpathyCue      = "Sé comprensivo."
	defaultSpecificHint    = "Para detalles, contacta directamente."
	defaultGeneralFallback = "No tengo esa información. ¿Te ayudo con algo más?"
	defaultContactNotes    = "Revisa la web para contacto."
)

var (
	slotRegex        = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)
	blankRunRegex    = regexp.MustCompile(`\n\s*\n+`)
	placeholderRegex = regexp.MustCompile(`,?\s*` + regexp.QuoteMeta(namePlaceholder))
	defaultTone      = []string{"amable", "servicial"}
)

type Input struct {
	Brand     string
	Query     string
	Context   []model.ScoredDocument
	History   []model.ConversationTurn
	FirstTurn bool
	UserName  string
}

type Result struct {
	Prompt  string
	Profile *brand.Profile
	Tier    brand.MatchTier
}

type Builder struct {
	resolver *brand.Resolver
}

func NewBuilder(resolver *brand.Resolver) *Builder {
	return &Builder{resolver: resolver}
}

// Build never fails: unknown brands fall back to the default profile and
// missing inputs are replaced by their markers.
func (b *Builder) Build(ctx context.Context, in Input) *Result {
	res := b.resolver.Resolve(ctx, in.Brand)
	p := res.Profile
	values := map[string]string{
		"persona":           orDefault(p.Persona, defaultPersona),
		"tone":              formatTone(p.ToneKeywords),
		"length_guidance":   orDefault(p.LengthGuidance, defaultLengthGuidance),
		"greeting":          greetingLine(p, in.FirstTurn, in.UserName),
		"contact_notes":     orDefault(p.ContactNotes, defaultContactNotes),
		"specific_fallback": orDefault(p.SpecificFallback, defaultSpecificHint),
		"general_fallback":  orDefault(p.GeneralFallback, defaultGeneralFallback),
		"empathy_cue":       orDefault(p.EmpathyCue, defaultEmpathyCue),
		"context":           FormatContext(in.Context),
		"history":           FormatHistory(in.History),
		"query":             orDefault(in.Query, NoQueryMarker),
		"signature_role":    SignatureRole(p.Persona),
	}
	text := fill(chatTemplate, values)
	logutil.GetLogger(ctx).Debug("prompt built",
		zap.String("profile", p.Name),
		zap.String("tier", string(res.Tier)),
		zap.Int("context_docs", len(in.Context)),
		zap.Int("history_turns", len(in.History)),
		zap.Int("length", len(text)),
	)
	return &Result{Prompt: text, Profile: p, Tier: res.Tier}
}

func fill(tpl string, values map[string]string) string {
	out := slotRegex.ReplaceAllStringFunc(tpl, func(token string) string {
		match := slotRegex.FindStringSubmatch(token)
		if len(match) < 2 {
			return token
		}
		return values[match[1]]
	})
	return blankRunRegex.ReplaceAllString(strings.TrimSpace(out), "\n\n")
}

// FormatContext joins the document contents, or returns NoContextMarker when
// nothing usable was retrieved.
func FormatContext(docs []model.ScoredDocument) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if c := strings.TrimSpace(d.Content); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return NoContextMarker
	}
	return strings.Join(parts, "\n\n")
}

// FormatHistory renders the last turns oldest first.
func FormatHistory(turns []model.ConversationTurn) string {
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		var who string
		switch model.Role(strings.ToLower(string(t.Role))) {
		case model.RoleUser:
			who = "Usuario"
		case model.RoleAssistant:
			who = "Asistente"
		default:
			continue
		}
		lines = append(lines, "Turno Anterior ("+who+"): "+content)
	}
	if len(lines) == 0 {
		return NoHistoryMarker
	}
	return "Historial Reciente de la Conversación:\n" + strings.Join(lines, "\n")
}

func greetingLine(p *brand.Profile, firstTurn bool, userName string) string {
	if !firstTurn {
		return orDefault(p.FollowUpGreeting, defaultFollowUp)
	}
	line := orDefault(p.Greeting, defaultGreeting)
	if !strings.Contains(line, namePlaceholder) {
		return line
	}
	if name := firstName(userName); name != "" {
		return strings.ReplaceAll(line, namePlaceholder, name)
	}
	return placeholderRegex.ReplaceAllString(line, "")
}

// firstName returns the capitalized first word of raw, or "" when it is not
// purely alphabetic.
func firstName(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	r := []rune(strings.ToLower(fields[0]))
	for _, c := range r {
		if !unicode.IsLetter(c) {
			return ""
		}
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// SignatureRole derives the short role name the answer is signed with from
// the persona description.
func SignatureRole(persona string) string {
	var role string
	switch {
	case strings.Contains(persona, ","):
		role = strings.TrimSpace(persona[:strings.Index(persona, ",")])
	case strings.Contains(persona, "."):
		role = strings.TrimSpace(persona[:strings.Index(persona, ".")])
	default:
		words := strings.Fields(persona)
		if len(words) > 5 {
			words = words[:5]
		}
		role = strings.Join(words, " ")
	}
	if r := []rune(role); len(r) > maxSignatureLen {
		role = string(r[:maxSignatureLen-3]) + "..."
	}
	if role == "" {
		return defaultSignature
	}
	return role
}

func formatTone(keywords []string) string {
	if len(keywords) == 0 {
		keywords = defaultTone
	}
	return strings.Join(keywords, ", ")
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
