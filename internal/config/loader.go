package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// includeKey names the directive that splices another config file into the
// current one. Included files load first; the including file wins on
// conflicting keys.
const includeKey = "$include"

// LoadRaw reads the config file at path into a merged raw map, with includes
// resolved and environment variables expanded.
func LoadRaw(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is required")
	}
	return loadMerged(path, map[string]bool{})
}

// loadMerged loads one file and everything it includes. active tracks the
// include chain currently being resolved to reject cycles.
func loadMerged(path string, active map[string]bool) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if active[abs] {
		return nil, fmt.Errorf("config include cycle detected at %s", abs)
	}
	active[abs] = true
	defer delete(active, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument([]byte(os.ExpandEnv(string(data))), abs)
	if err != nil {
		return nil, err
	}

	includes, err := popIncludes(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	merged := map[string]any{}
	baseDir := filepath.Dir(abs)
	for _, inc := range includes {
		inc = strings.TrimSpace(inc)
		if inc == "" {
			continue
		}
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(baseDir, inc)
		}
		sub, err := loadMerged(inc, active)
		if err != nil {
			return nil, err
		}
		merged = deepMerge(merged, sub)
	}
	return deepMerge(merged, doc), nil
}

// parseDocument decodes one config file: JSON5 for .json/.json5 paths, YAML
// for everything else. YAML input must be a single document.
func parseDocument(data []byte, path string) (map[string]any, error) {
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		if err := json5.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return nil, fmt.Errorf("parse %s: expected a single document", path)
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// popIncludes removes the include directive from doc and returns its paths.
func popIncludes(doc map[string]any) ([]string, error) {
	val, ok := doc[includeKey]
	if !ok {
		return nil, nil
	}
	delete(doc, includeKey)

	switch typed := val.(type) {
	case string:
		return []string{typed}, nil
	case []any:
		paths := make([]string, 0, len(typed))
		for _, entry := range typed {
			p, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("%s entries must be strings", includeKey)
			}
			paths = append(paths, p)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("%s must be a path or a list of paths", includeKey)
	}
}

// deepMerge overlays src onto dst: nested maps merge recursively, everything
// else is replaced by the src value.
func deepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, val := range src {
		if srcMap, ok := val.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[key] = val
	}
	return dst
}

// decodeStrict converts the merged raw map into a Config, rejecting unknown
// fields so a typoed key fails at startup instead of being silently ignored.
func decodeStrict(raw map[string]any) (*Config, error) {
	buf, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("serialize config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
