package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFileName drops dirs, replaces spaces with '_' and keeps only letters, digits, '-', '_', '.'.
// Extension is lowercased
func SanitizeFileName(fileName string) (string, error) {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	var sb strings.Builder
	for _, r := range strings.Join(strings.Fields(base), "_") {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			sb.WriteRune(r)
		}
	}
	res := strings.Trim(sb.String(), "._")
	if res == "" {
		return "", fmt.Errorf("wrong file name '%s'", fileName)
	}
	ext := filepath.Ext(res)
	return strings.TrimSuffix(res, ext) + strings.ToLower(ext), nil
}

// MakeValidateFileName returns sanitized file name prefixed with 'ID_'
func MakeValidateFileName(ID, fileName string) (string, error) {
	res, err := SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	if ID == "" {
		return res, nil
	}
	return ID + "_" + res, nil
}
