package brand

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const DefaultProfileName = "default"

//go:embed profiles.json
var builtinProfiles []byte

type Profile struct {
	Name              string   `json:"name"`
	Aliases           []string `json:"aliases"`
	Persona           string   `json:"persona_description"`
	Greeting          string   `json:"greeting_style"`
	FollowUpGreeting  string   `json:"follow_up_greeting_style"`
	LengthGuidance    string   `json:"response_length_guidance"`
	ToneKeywords      []string `json:"tone_keywords"`
	EmpathyCue        string   `json:"empathy_cue"`
	SpecificFallback  string   `json:"specific_fallback_guidance"`
	GeneralFallback   string   `json:"general_fallback_guidance"`
	FallbackNoContext string   `json:"fallback_no_context"`
	FallbackLLMError  string   `json:"fallback_llm_error"`
	ContactNotes      string   `json:"contact_info_notes"`
}

func (p *Profile) IsDefault() bool {
	return p.Name == DefaultProfileName
}

// Key is the normalized brand key documents of this profile are tagged with.
func (p *Profile) Key() string {
	if p.IsDefault() {
		return ""
	}
	return Normalize(p.Name)
}

type keyedProfile struct {
	key     string
	profile *Profile
}

type Registry struct {
	profiles []*Profile
	byName   map[string]*Profile
	byKey    map[string]*Profile
	keys     []keyedProfile
	def      *Profile
}

func DefaultRegistry() *Registry {
	reg, err := ParseRegistry(builtinProfiles)
	if err != nil {
		panic(fmt.Sprintf("builtin brand profiles: %v", err))
	}
	return reg
}

// LoadRegistry reads profiles from path, falling back to the builtin table
// when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRegistry(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseRegistry(raw)
}

func ParseRegistry(raw []byte) (*Registry, error) {
	var items []*Profile
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	reg := &Registry{
		byName: make(map[string]*Profile, len(items)),
		byKey:  make(map[string]*Profile, len(items)*2),
	}
	for _, p := range items {
		if p == nil || strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("profile name is required")
		}
		if _, ok := reg.byName[p.Name]; ok {
			return nil, fmt.Errorf("duplicate profile: %s", p.Name)
		}
		reg.byName[p.Name] = p
		reg.profiles = append(reg.profiles, p)
		if p.IsDefault() {
			reg.def = p
			continue
		}
		for _, name := range append([]string{p.Name}, p.Aliases...) {
			key := Normalize(name)
			if key == "" {
				continue
			}
			if _, ok := reg.byKey[key]; ok {
				continue
			}
			reg.byKey[key] = p
			reg.keys = append(reg.keys, keyedProfile{key: key, profile: p})
		}
	}
	if reg.def == nil {
		return nil, fmt.Errorf("profile %q is required", DefaultProfileName)
	}
	return reg, nil
}

func (r *Registry) Default() *Profile {
	return r.def
}

func (r *Registry) Get(name string) (*Profile, bool) {
	p, ok := r.byName[name]
	return p, ok
}

func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}
