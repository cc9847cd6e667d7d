// Package upload содержит правила приёма файлов-подтверждений.
package upload

import "strings"

// AllowedExtensions допустимые расширения файлов-подтверждений.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt переводит расширение в нижний регистр и убирает точку.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Ext возвращает расширение имени файла: текст после последней точки.
// ok=false, если точки нет.
func Ext(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", false
	}
	return NormalizeExt(name[i+1:]), true
}

// IsAllowed сообщает, допустимо ли расширение файла name.
func IsAllowed(name string) bool {
	ext, ok := Ext(name)
	if !ok {
		return false
	}
	_, allowed := AllowedExtensions[ext]
	return allowed
}
