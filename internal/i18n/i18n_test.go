package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLocaleEN = `
en:
  start:
    welcome: "Hello {name}!"
  menu:
    title: "Main menu"
  help:
    body:
      - "Line one for {name}"
      - "Line two"
`

const testLocaleHI = `
hi:
  start:
    welcome: "Namaste {name}!"
`

func writeLocales(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func loadTestManager(t *testing.T) *Manager {
	t.Helper()

	dir := writeLocales(t, map[string]string{
		"en.yaml": testLocaleEN,
		"hi.yaml": testLocaleHI,
	})

	m, err := LoadFromDir(dir, "en")
	require.NoError(t, err)
	return m
}

func TestT_Basic(t *testing.T) {
	m := loadTestManager(t)

	tr := m.Translator("en")
	assert.Equal(t, "Hello Asha!", tr.T("start.welcome", Params{"name": "Asha"}))
	assert.Equal(t, "Main menu", tr.T("menu.title", nil))
}

func TestT_FallbackChain(t *testing.T) {
	m := loadTestManager(t)

	tr := m.Translator("hi")
	assert.Equal(t, "hi", tr.Lang())

	// Present in the hi pack.
	assert.Equal(t, "Namaste Asha!", tr.T("start.welcome", Params{"name": "Asha"}))

	// Missing in hi, resolved from the default pack.
	assert.Equal(t, "Main menu", tr.T("menu.title", nil))

	// Missing everywhere, the key itself comes back.
	assert.Equal(t, "no.such.key", tr.T("no.such.key", nil))
}

func TestT_UnknownLanguageUsesDefault(t *testing.T) {
	m := loadTestManager(t)

	tr := m.Translator("fr")
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "Main menu", tr.T("menu.title", nil))
}

func TestT_UnmatchedPlaceholderStaysLiteral(t *testing.T) {
	m := loadTestManager(t)

	tr := m.Translator("en")
	assert.Equal(t, "Hello {name}!", tr.T("start.welcome", Params{"other": "x"}))
	assert.Equal(t, "Hello {name}!", tr.T("start.welcome", nil))
}

func TestLines_ListValues(t *testing.T) {
	m := loadTestManager(t)

	tr := m.Translator("en")

	lines := tr.Lines("help.body", Params{"name": "Asha"})
	assert.Equal(t, []string{"Line one for Asha", "Line two"}, lines)

	// T joins list values with newlines.
	assert.Equal(t, "Line one for Asha\nLine two", tr.T("help.body", Params{"name": "Asha"}))

	// Scalar values come back as a single-element list.
	assert.Equal(t, []string{"Main menu"}, tr.Lines("menu.title", nil))
}

func TestLoadFromDir_MissingDefault(t *testing.T) {
	dir := writeLocales(t, map[string]string{"hi.yaml": testLocaleHI})

	_, err := LoadFromDir(dir, "en")
	assert.Error(t, err)
}

func TestReload(t *testing.T) {
	dir := writeLocales(t, map[string]string{"en.yaml": testLocaleEN})

	m, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("en:\n  menu:\n    title: \"Updated menu\"\n"), 0o644))
	require.NoError(t, m.Reload())

	assert.Equal(t, "Updated menu", m.Translator("en").T("menu.title", nil))
}

func TestLanguages(t *testing.T) {
	m := loadTestManager(t)

	assert.ElementsMatch(t, []string{"en", "hi"}, m.Languages())
}
