// Package mention resolves display names to audience tags.
//
// Tags are configured against slugged names, so "Sunflower Seed",
// "sunflower-seed" and "Sunflower  seed" all land on the same entry. Per
// category, a handful of candidate spellings (bare name, prefixed name, a
// few "Category name" shapes) are tried in order.
package mention

import (
	"regexp"
	"strings"
)

type Config struct {
	// Prefixes holds per-category tag-name prefixes, e.g. "Seed Ping ".
	Prefixes map[string]string
	// Tags maps slugged names to audience tags.
	Tags map[string]string
}

// Static is a config-backed resolver. It is immutable and safe for
// concurrent use.
type Static struct {
	prefixes map[string]string
	tags     map[string]string
}

func NewStatic(cfg Config) *Static {
	tags := make(map[string]string, len(cfg.Tags))
	for name, tag := range cfg.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags[Slug(name)] = tag
	}
	prefixes := make(map[string]string, len(cfg.Prefixes))
	for cat, p := range cfg.Prefixes {
		prefixes[strings.ToLower(strings.TrimSpace(cat))] = p
	}
	return &Static{prefixes: prefixes, tags: tags}
}

// Resolve implements format.Resolver.
func (s *Static) Resolve(displayName, category string) (string, bool) {
	if strings.TrimSpace(displayName) == "" {
		return "", false
	}
	for _, cand := range Candidates(displayName, category, s.prefixes[strings.ToLower(category)]) {
		if tag, ok := s.tags[Slug(cand)]; ok {
			return tag, true
		}
	}
	return "", false
}

// Candidates lists the spellings tried for a name, most specific first.
func Candidates(name, category, prefix string) []string {
	clean := strings.TrimSpace(name)
	out := []string{clean}
	if prefix != "" {
		out = append(out, prefix+clean)
	}
	titled := capitalize(category)
	out = append(out,
		titled+" - "+clean,
		titled+" "+clean,
		category+": "+clean,
	)
	return out
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases and collapses non-alphanumerics to single dashes.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(slugRe.ReplaceAllString(s, "-"), "-")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
