package runtime

import (
	"path/filepath"
	"strings"
)

// Canonical language names of indexed files.
const (
	LanguageJava  = "java"
	LanguageRisor = "risor"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".java":  LanguageJava,
	".risor": LanguageRisor,
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// Extensions returns the recognized file extensions.
func Extensions() []string {
	out := make([]string, 0, len(extToLanguage))
	for ext := range extToLanguage {
		out = append(out, ext)
	}
	return out
}
