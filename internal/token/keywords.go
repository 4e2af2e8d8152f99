package token

// keywords is the fixed closed set of reserved identifiers spec.md §4.1
// names. "struct" is recognized only so the parser can reject its use with
// a clear diagnostic instead of treating it as a plain identifier.
var keywords = map[string]Kind{
	"if": KwIf, "else": KwElse, "while": KwWhile, "do": KwDo, "for": KwFor,
	"switch": KwSwitch, "case": KwCase, "default": KwDefault,
	"break": KwBreak, "continue": KwContinue, "return": KwReturn,
	"void": KwVoid, "int": KwInt, "float": KwFloat, "string": KwString,
	"object": KwObject, "vector": KwVector, "action": KwAction,
	"const": KwConst, "struct": KwStruct,
}

// LookupKeyword returns the keyword Kind for text, or (Ident, false) if
// text is an ordinary identifier.
func LookupKeyword(text string) (Kind, bool) {
	k, ok := keywords[text]
	return k, ok
}
