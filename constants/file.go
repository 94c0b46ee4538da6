package constants

import (
	"path"
	"strings"
)

const (
	// DocumentKind is matched against lower-cased file names.
	DocumentKind = "pdf"
	// IntermediateExt replaces the document extension for page-text uploads.
	IntermediateExt = ".json"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsDocument reports whether name looks like a contract document.
func IsDocument(name string) bool {
	return strings.Contains(strings.ToLower(name), DocumentKind)
}

// IntermediateName maps "dir/contrato.pdf" to "dir/contrato.json".
func IntermediateName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + IntermediateExt
}
