package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultHashDims = 384

type hashConfig struct {
	Dims int `json:"dims"`
}

// hashProvider is an offline embedder: signed feature hashing over word
// unigrams and character trigrams, L2 normalized. It is deterministic and
// needs no network, which makes it usable for tests and air-gapped builds.
type hashProvider struct {
	dims int
}

func (p *hashProvider) Name() string {
	return "hash"
}

func (p *hashProvider) Embed(ctx context.Context, _ string, text string, _ string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, p.dims)
	for _, tok := range tokenize(text) {
		p.add(vec, "w:"+tok, 1)
		padded := []rune(" " + tok + " ")
		for i := 0; i+3 <= len(padded); i++ {
			p.add(vec, "c:"+string(padded[i:i+3]), 0.5)
		}
	}
	var norm2 float64
	for _, v := range vec {
		norm2 += float64(v) * float64(v)
	}
	if norm2 == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm2))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (p *hashProvider) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(p.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func createHashProvider(args interface{}) (*hashProvider, error) {
	cfg := &hashConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dims <= 0 {
		cfg.Dims = defaultHashDims
	}
	return &hashProvider{dims: cfg.Dims}, nil
}

func init() {
	RegisterEmbed("hash", func(args interface{}) (IEmbedProvider, error) {
		return createHashProvider(args)
	})
}
