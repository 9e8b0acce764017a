package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Names used when the path is "/".
const (
	RootClassName = "Root"
	RootOperation = "root"
)

// classNameMapper strips parameter braces and treats underscores as path
// separators, so "{bar_id}" contributes the segments "bar" and "id".
var classNameMapper = strings.NewReplacer("{", "", "}", "", "_", "/")

// operationMapper strips parameter braces only; underscores survive.
var operationMapper = strings.NewReplacer("{", "", "}", "")

// ClassName maps a path template to its canonical class name: each non-empty
// segment is title-cased on its first rune (the rest is preserved) and the
// segments are concatenated.
//
//	"/foo/{bar_id}/baz" -> "FooBarIdBaz"
//	"/"                 -> "Root"
func ClassName(path string) string {
	var b strings.Builder
	for _, seg := range strings.Split(classNameMapper.Replace(path), "/") {
		if seg == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(seg)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(seg[size:])
	}
	if b.Len() == 0 {
		return RootClassName
	}
	return b.String()
}

// OperationName derives the fallback operation identifier for a (path, verb)
// pair. An operationId declared in the specification always wins over this.
//
//	("/foo/{id}", "get") -> "get_foo_id"
//	("/", "get")         -> "get_root"
func OperationName(path, verb string) string {
	if path == "/" {
		return verb + "_" + RootOperation
	}
	var segments []string
	for _, seg := range strings.Split(operationMapper.Replace(path), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return verb + "_" + strings.Join(segments, "_")
}
