// # internal/render/body.go
package render

import (
	"strings"

	"focal/internal/model"
)

// ClearBody strips the executable body from a function-like declaration,
// leaving the signature and an empty block. Declarations without a body
// (trait method prototypes) come back unchanged.
func ClearBody(text string) string {
	open := strings.IndexByte(text, '{')
	if open < 0 {
		return text
	}
	closing := strings.LastIndexByte(text, '}')
	if closing < open {
		return text
	}
	return strings.TrimRight(text[:open], " \t") + " {}"
}

// HasBody reports whether the declaration text carries a non-empty block.
func HasBody(text string) bool {
	open := strings.IndexByte(text, '{')
	if open < 0 {
		return false
	}
	closing := strings.LastIndexByte(text, '}')
	if closing <= open {
		return false
	}
	return strings.TrimSpace(text[open+1:closing]) != ""
}

// Signature returns the declaration text up to its body block, trimmed.
func Signature(text string) string {
	open := strings.IndexByte(text, '{')
	if open < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimRight(text[:open], " \t\n")
}

// ReturnType extracts the declared return type from a function signature,
// or "" when the function returns unit.
func ReturnType(text string) string {
	sig := Signature(text)
	arrow := strings.Index(sig, "->")
	if arrow < 0 {
		return ""
	}
	ret := sig[arrow+2:]
	if where := strings.Index(ret, "where"); where >= 0 {
		ret = ret[:where]
	}
	if semi := strings.IndexByte(ret, ';'); semi >= 0 {
		ret = ret[:semi]
	}
	return strings.TrimSpace(ret)
}

// retainsConstructorBody implements the body-retention heuristic for impl
// methods reached indirectly: the body survives only when the declared
// return type mentions the implementing type or Self. This keeps
// constructor/factory methods readable while bounding output size.
func retainsConstructorBody(methodText, targetType string) bool {
	ret := ReturnType(methodText)
	if ret == "" {
		return false
	}
	if strings.Contains(ret, "Self") {
		return true
	}
	local := model.LocalName(targetType)
	if local == "" {
		return false
	}
	return containsWord(ret, local)
}

// containsWord reports whether s contains word bounded by non-identifier
// characters, so `Point` does not match `PointerMap`.
func containsWord(s, word string) bool {
	for at := 0; at+len(word) <= len(s); at++ {
		idx := strings.Index(s[at:], word)
		if idx < 0 {
			return false
		}
		start := at + idx
		end := start + len(word)
		beforeOK := start == 0 || !isIdentByte(s[start-1])
		afterOK := end == len(s) || !isIdentByte(s[end])
		if beforeOK && afterOK {
			return true
		}
		at = start
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
