package i18n

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const defaultDir = "locales"

// Params holds named placeholder values for message templates.
type Params map[string]string

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	// T returns the localized value for key with placeholders substituted.
	// Multi-line hint blocks (list values) are joined with newlines.
	T(key string, params Params) string
	// Lines returns the localized value as an ordered list; scalar values
	// come back as a single-element list.
	Lines(key string, params Params) []string
	Lang() string
}

// entry is a single localized value: either a scalar or an ordered list.
type entry struct {
	text string
	list []string
}

// Manager stores all available locale packs.
type Manager struct {
	mu           sync.RWMutex
	translations map[string]map[string]entry
	defaultLang  string
	dir          string
}

// Load loads locale packs from the default directory.
func Load(defaultLang string) (*Manager, error) {
	return LoadFromDir(defaultDir, defaultLang)
}

// LoadFromDir loads locale packs from a directory containing YAML files.
func LoadFromDir(dir, defaultLang string) (*Manager, error) {
	catalog, err := parseDir(dir)
	if err != nil {
		return nil, err
	}

	if defaultLang == "" {
		defaultLang = "en"
	}

	if _, ok := catalog[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{translations: catalog, defaultLang: defaultLang, dir: dir}, nil
}

// Reload re-reads the locale directory, replacing the loaded packs atomically.
// The old catalog is kept when parsing fails.
func (m *Manager) Reload() error {
	if m == nil || m.dir == "" {
		return nil
	}

	catalog, err := parseDir(m.dir)
	if err != nil {
		return err
	}

	if _, ok := catalog[m.defaultLang]; !ok {
		return fmt.Errorf("i18n: default language %q is missing after reload", m.defaultLang)
	}

	m.mu.Lock()
	m.translations = catalog
	m.mu.Unlock()
	return nil
}

// Translator returns a translator for the requested language.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	norm := strings.ToLower(strings.TrimSpace(lang))
	if norm == "" || m.translations[norm] == nil {
		norm = m.defaultLang
	}

	return translator{
		lang:     norm,
		fallback: m.defaultLang,
		manager:  m,
	}
}

// Languages returns all loaded languages.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	languages := make([]string, 0, len(m.translations))
	for lang := range m.translations {
		languages = append(languages, lang)
	}
	return languages
}

func (m *Manager) lookup(lang, key string) (entry, bool) {
	if m == nil || lang == "" {
		return entry{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if entries := m.translations[lang]; entries != nil {
		if value, ok := entries[key]; ok {
			return value, true
		}
	}

	return entry{}, false
}

type translator struct {
	lang     string
	fallback string
	manager  *Manager
}

func (t translator) Lang() string {
	return t.lang
}

// T resolves key through the pack chain: user language, default language,
// then the raw key itself. It never fails.
func (t translator) T(key string, params Params) string {
	return strings.Join(t.Lines(key, params), "\n")
}

// Lines resolves key like T but preserves the shape of list values.
func (t translator) Lines(key string, params Params) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return []string{""}
	}

	value, ok := t.manager.lookup(t.lang, key)
	if !ok {
		value, ok = t.manager.lookup(t.fallback, key)
	}
	if !ok {
		return []string{substitute(key, params)}
	}

	if value.list != nil {
		lines := make([]string, len(value.list))
		for i, line := range value.list {
			lines[i] = substitute(line, params)
		}
		return lines
	}

	return []string{substitute(value.text, params)}
}

// substitute replaces every {name} placeholder with the supplied value.
// Unmatched placeholders stay literal so a missing parameter degrades the
// message instead of corrupting it.
func substitute(text string, params Params) string {
	if len(params) == 0 || !strings.Contains(text, "{") {
		return text
	}

	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}

	return text
}

func parseDir(dir string) (map[string]map[string]entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	catalog := make(map[string]map[string]entry)
	var processed bool

	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !isYAML(dirEntry) {
			continue
		}

		processed = true

		path := filepath.Join(dir, dirEntry.Name())
		fileCatalog, err := parseFile(path)
		if err != nil {
			return nil, err
		}

		for lang, translations := range fileCatalog {
			if _, ok := catalog[lang]; !ok {
				catalog[lang] = make(map[string]entry)
			}
			for key, value := range translations {
				catalog[lang][key] = value
			}
		}
	}

	if !processed {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}

	return catalog, nil
}

func isYAML(dirEntry fs.DirEntry) bool {
	name := strings.ToLower(dirEntry.Name())
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func parseFile(path string) (map[string]map[string]entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("i18n: read file %s: %w", path, err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return map[string]map[string]entry{}, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("i18n: parse file %s: %w", path, err)
	}

	catalog := make(map[string]map[string]entry)
	for lang, value := range raw {
		langKey := strings.ToLower(strings.TrimSpace(lang))
		if langKey == "" {
			continue
		}

		normalized := toStringMap(value)
		if len(normalized) == 0 {
			continue
		}

		flattened := make(map[string]entry)
		flatten("", normalized, flattened)
		if len(flattened) == 0 {
			continue
		}

		catalog[langKey] = flattened
	}

	return catalog, nil
}

func toStringMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case map[interface{}]any:
		converted := make(map[string]any, len(v))
		for key, item := range v {
			keyStr, ok := key.(string)
			if !ok {
				continue
			}
			converted[keyStr] = item
		}
		return converted
	default:
		return nil
	}
}

func flatten(prefix string, in map[string]any, out map[string]entry) {
	for key, value := range in {
		if key == "" {
			continue
		}

		nextKey := key
		if prefix != "" {
			nextKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[nextKey] = entry{text: v}
		case []any:
			lines := make([]string, 0, len(v))
			for _, item := range v {
				if line, ok := item.(string); ok {
					lines = append(lines, line)
				}
			}
			if len(lines) > 0 {
				out[nextKey] = entry{list: lines}
			}
		case map[string]any:
			flatten(nextKey, v, out)
		case map[interface{}]any:
			child := toStringMap(v)
			if len(child) == 0 {
				continue
			}
			flatten(nextKey, child, out)
		}
	}
}
