package common

import (
	"path/filepath"
	"strings"
	"unicode"
)

// GlobalName derives the descriptor variable name for a type. Namespace
// separators and any other rune that cannot appear in a C++ identifier
// become '_', so "vx::Foo" with prefix "g_rf_" yields "g_rf_vx__Foo".
func GlobalName(prefix, typeName string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(typeName))
	b.WriteString(prefix)
	for _, r := range typeName {
		if r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// OutputPath returns the generated file path for a source file: the source
// directory, the base name up to its first '.', then suffix.
// "src/gl/Buffer.h" with "_reflection.cpp" becomes "src/gl/Buffer_reflection.cpp".
func OutputPath(sourcePath, suffix string) string {
	dir, base := filepath.Split(sourcePath)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return dir + base + suffix
}

// NormalizeRoot cleans a root directory argument as passed on the command
// line: surrounding quotes are stripped and backslashes become slashes.
func NormalizeRoot(root string) string {
	root = strings.TrimSpace(root)
	root = strings.Trim(root, `"'`)
	root = strings.ReplaceAll(root, `\`, "/")
	return root
}
