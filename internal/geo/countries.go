// Package geo resolves free-form country names to ISO 3166-1 alpha-3 codes
// for the choropleth map.
package geo

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

// Resolver maps a country name to its alpha-3 code. Unresolvable names
// report false; resolution never fails hard.
type Resolver interface {
	Resolve(name string) (string, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (string, bool)

func (f ResolverFunc) Resolve(name string) (string, bool) { return f(name) }

type Country struct {
	Alpha2  string   `yaml:"a2"`
	Alpha3  string   `yaml:"a3"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Directory looks names up in the embedded ISO 3166-1 table. It matches
// alpha-2 and alpha-3 codes, short names and aliases, ignoring case and
// diacritics. A Directory is read-only after construction.
type Directory struct {
	countries []Country
	byKey     map[string]string
}

// NewDirectory builds a Directory from the embedded table plus extra
// aliases. Alias targets may be any name or code the table already knows.
func NewDirectory(extra map[string]string) (*Directory, error) {
	var countries []Country
	if err := yaml.Unmarshal(countriesYAML, &countries); err != nil {
		return nil, fmt.Errorf("parse country table: %w", err)
	}

	d := &Directory{
		countries: countries,
		byKey:     make(map[string]string, len(countries)*4),
	}
	for _, c := range countries {
		for _, k := range append([]string{c.Alpha3, c.Alpha2, c.Name}, c.Aliases...) {
			d.add(k, c.Alpha3)
		}
	}

	for alias, target := range extra {
		code, ok := d.Resolve(target)
		if !ok {
			return nil, fmt.Errorf("alias %q: unknown country %q", alias, target)
		}
		d.byKey[Normalize(alias)] = code
	}
	return d, nil
}

func (d *Directory) add(key, code string) {
	k := Normalize(key)
	if k == "" {
		return
	}
	if _, exists := d.byKey[k]; !exists {
		d.byKey[k] = code
	}
}

func (d *Directory) Resolve(name string) (string, bool) {
	code, ok := d.byKey[Normalize(name)]
	return code, ok
}

// Len reports the number of countries in the table.
func (d *Directory) Len() int {
	return len(d.countries)
}

// LoadAliases reads a YAML mapping of extra names to country names or codes,
// e.g. `Peoples Rep. of China: CHN`.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}
	aliases := make(map[string]string)
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("parse aliases %s: %w", path, err)
	}
	return aliases, nil
}

// Normalize folds case, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

type cached struct {
	code string
	ok   bool
}

// CachedResolver memoizes another Resolver. Datasets repeat the same few
// country names across many rows. Safe for concurrent use.
type CachedResolver struct {
	next  Resolver
	cache *lru.Cache[string, cached]
}

func NewCachedResolver(next Resolver, size int) (*CachedResolver, error) {
	cache, err := lru.New[string, cached](size)
	if err != nil {
		return nil, fmt.Errorf("create lookup cache: %w", err)
	}
	return &CachedResolver{next: next, cache: cache}, nil
}

func (c *CachedResolver) Resolve(name string) (string, bool) {
	if hit, ok := c.cache.Get(name); ok {
		return hit.code, hit.ok
	}
	code, ok := c.next.Resolve(name)
	c.cache.Add(name, cached{code: code, ok: ok})
	return code, ok
}
