package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

const fallbackLang = "en"

type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys, falling back to
// English when the requested locale is missing.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	data, err := fs.ReadFile(fsys, path.Join("locales", langCode+".yaml"))
	if err != nil && langCode != fallbackLang {
		langCode = fallbackLang
		data, err = fs.ReadFile(fsys, path.Join("locales", langCode+".yaml"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file for %q: %w", langCode, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T returns the formatted text for key, or the key itself when unknown.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Lang() string { return t.lang }
