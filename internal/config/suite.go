package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite is a named set of old/new endpoint pairs read from a YAML file.
//
//	name: home sections
//	old_base_url: https://old.example.com/api
//	new_base_url: https://new.example.com
//	headers:
//	  Authorization: Bearer ${PARITY_TOKEN}
//	comparisons:
//	  - name: Main banner carousel
//	    path: /public/v3/sites/market/sections/245/main_banner_carousel
type Suite struct {
	Name        string            `yaml:"name"`
	OldBaseURL  string            `yaml:"old_base_url"`
	NewBaseURL  string            `yaml:"new_base_url"`
	Headers     map[string]string `yaml:"headers"`
	Comparisons []Comparison      `yaml:"comparisons"`
}

// Comparison is one entry of a Suite. Path applies to both sides unless
// OldPath/NewPath override it; OldURL/NewURL bypass the base URLs entirely.
type Comparison struct {
	Name    string            `yaml:"name"`
	Path    string            `yaml:"path"`
	OldPath string            `yaml:"old_path"`
	NewPath string            `yaml:"new_path"`
	OldURL  string            `yaml:"old_url"`
	NewURL  string            `yaml:"new_url"`
	Headers map[string]string `yaml:"headers"`
}

// Endpoint is a fully resolved comparison.
type Endpoint struct {
	Name    string
	OldURL  string
	NewURL  string
	Headers map[string]string
}

// LoadSuite reads and parses a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite parses suite YAML. Unknown fields are rejected.
func ParseSuite(data []byte) (*Suite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Suite
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: suite is empty")
		}
		return nil, fmt.Errorf("config: parse suite: %w", err)
	}
	if len(s.Comparisons) == 0 {
		return nil, fmt.Errorf("config: suite has no comparisons")
	}
	return &s, nil
}

// Resolve turns the suite into endpoints. Base URLs missing from the suite
// fall back to cfg. Header values have ${VAR} references expanded from the
// environment; referencing an unset variable is an error.
func (s *Suite) Resolve(cfg Config) ([]Endpoint, error) {
	oldBase := firstNonEmpty(s.OldBaseURL, cfg.OldBaseURL)
	newBase := firstNonEmpty(s.NewBaseURL, cfg.NewBaseURL)

	shared, err := expandHeaders(s.Headers)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(s.Comparisons))
	endpoints := make([]Endpoint, 0, len(s.Comparisons))
	for i, c := range s.Comparisons {
		if c.Name == "" {
			return nil, fmt.Errorf("config: comparison %d: name is required", i+1)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("config: comparison %q: duplicate name", c.Name)
		}
		seen[c.Name] = true

		oldURL, err := resolveURL(c.OldURL, oldBase, firstNonEmpty(c.OldPath, c.Path))
		if err != nil {
			return nil, fmt.Errorf("config: comparison %q: old: %w", c.Name, err)
		}
		newURL, err := resolveURL(c.NewURL, newBase, firstNonEmpty(c.NewPath, c.Path))
		if err != nil {
			return nil, fmt.Errorf("config: comparison %q: new: %w", c.Name, err)
		}

		own, err := expandHeaders(c.Headers)
		if err != nil {
			return nil, fmt.Errorf("config: comparison %q: %w", c.Name, err)
		}

		endpoints = append(endpoints, Endpoint{
			Name:    c.Name,
			OldURL:  oldURL,
			NewURL:  newURL,
			Headers: mergeHeaders(shared, own),
		})
	}
	return endpoints, nil
}

// ParseHeaders parses "Key: Value" pairs as given on the command line.
func ParseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("config: invalid header %q (want \"Key: Value\")", h)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}

func resolveURL(full, base, path string) (string, error) {
	raw := full
	if raw == "" {
		if base == "" {
			return "", fmt.Errorf("no url and no base url configured")
		}
		if path == "" {
			return "", fmt.Errorf("no path configured")
		}
		raw = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: want an absolute http(s) url", raw)
	}
	return u.String(), nil
}

func expandHeaders(in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	var missing []string
	for k, v := range in {
		out[k] = os.Expand(v, func(name string) string {
			val, ok := os.LookupEnv(name)
			if !ok {
				missing = append(missing, name)
			}
			return val
		})
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("config: header references unset environment variable(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func mergeHeaders(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
