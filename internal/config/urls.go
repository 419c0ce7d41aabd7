package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed urls.yaml
var defaultURLs []byte

var (
	ErrUnknownSource = errors.New("no URL templates for source")
	ErrUnknownKey    = errors.New("no URL template for key")
)

// URLSet maps a resource key (events, event_asset, ...) to a URL template.
type URLSet map[string]string

// URLs holds every known URL template. Sekai templates are split by region;
// Bestdori templates take the language as a placeholder instead.
type URLs struct {
	Sekai    map[string]map[string]URLSet `yaml:"sekai"`
	Bestdori map[string]URLSet            `yaml:"bestdori"`
}

const (
	GameSekai    = "sekai"
	GameBestdori = "bestdori"

	SourceSekaiBest = "sekai.best"
	SourcePjskMoe   = "pjsk.moe"
	SourceBestdori  = "bestdori.com"
)

// LoadURLs reads templates from path. An empty path selects the embedded
// defaults.
func LoadURLs(path string) (*URLs, error) {
	data := defaultURLs
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read url templates: %w", err)
		}
	}
	return ParseURLs(data)
}

// ParseURLs decodes a template document, rejecting unknown top-level keys.
func ParseURLs(data []byte) (*URLs, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var u URLs
	if err := dec.Decode(&u); err != nil {
		return nil, fmt.Errorf("decode url templates: %w", err)
	}
	return &u, nil
}

// Set returns the templates for one game, region and source. Region is
// ignored for Bestdori.
func (u *URLs) Set(game string, region Region, source string) (URLSet, error) {
	var (
		set URLSet
		ok  bool
	)
	switch game {
	case GameSekai:
		var sources map[string]URLSet
		if sources, ok = u.Sekai[string(region)]; ok {
			set, ok = sources[source]
		}
	case GameBestdori:
		set, ok = u.Bestdori[source]
	default:
		return nil, fmt.Errorf("unknown game %q", game)
	}
	if !ok {
		return nil, fmt.Errorf("%s %s %s: %w", game, region, source, ErrUnknownSource)
	}
	return set, nil
}

var placeholder = regexp.MustCompile(`\{[A-Za-z_]+\}`)

// Expand fills the {name} placeholders of the template stored under key.
// Every placeholder must be supplied.
func (s URLSet) Expand(key string, vars map[string]string) (string, error) {
	tmpl, ok := s[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrUnknownKey)
	}

	pairs := make([]string, 0, 2*len(vars))
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	out := strings.NewReplacer(pairs...).Replace(tmpl)

	if missing := placeholder.FindAllString(out, -1); len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%s: unfilled placeholders %s", key, strings.Join(missing, ", "))
	}
	return out, nil
}
