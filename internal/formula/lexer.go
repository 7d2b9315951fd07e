package formula

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// tokenClass identifies the lexical category of a token.
type tokenClass int

const (
	tcEOF tokenClass = iota
	tcLit
	tcIdent
	tcNeg
	tcAnd
	tcOr
	tcXor
	tcImplies
	tcIff
	tcMu
	tcNu
	tcDot
	tcDiamond
	tcBox
	tcLParen
	tcRParen
)

func (c tokenClass) human() string {
	switch c {
	case tcEOF:
		return "end of input"
	case tcLit:
		return "boolean literal"
	case tcIdent:
		return "identifier"
	case tcNeg:
		return "'!'"
	case tcAnd:
		return "'&&'"
	case tcOr:
		return "'||'"
	case tcXor:
		return "'xor'"
	case tcImplies:
		return "'->'"
	case tcIff:
		return "'<->'"
	case tcMu:
		return "'mu'"
	case tcNu:
		return "'nu'"
	case tcDot:
		return "'.'"
	case tcDiamond:
		return "'<>'"
	case tcBox:
		return "'[]'"
	case tcLParen:
		return "'('"
	case tcRParen:
		return "')'"
	default:
		return "token"
	}
}

// token is a lexeme combined with its class and source position, used to
// report precise syntax errors.
type token struct {
	class    tokenClass
	lexeme   string
	litValue bool
	line     int // 1-indexed
	pos      int // 1-indexed character position within the line
	fullLine string
}

// lexError is returned by the lexer when it cannot classify a rune;
// Parse wraps it into a *muerrors.SyntaxError.
type lexError struct {
	msg      string
	line     int
	pos      int
	fullLine string
	source   string
}

func (e *lexError) Error() string { return e.msg }

// multiRuneOperators maps a surface spelling to its token class. Longer
// entries are tried before shorter ones share a prefix (e.g. "<->" before
// "<-").
var multiRuneOperators = []struct {
	lit   string
	class tokenClass
}{
	{"<->", tcIff}, {"<-->", tcIff}, {"↔", tcIff}, {"⇔", tcIff},
	{"->", tcImplies}, {"-->", tcImplies}, {"=>", tcImplies}, {"→", tcImplies}, {"⟶", tcImplies}, {"⇒", tcImplies},
	{"&&", tcAnd}, {"/\\", tcAnd},
	{"||", tcOr}, {"\\/", tcOr},
	{"<>", tcDiamond}, {"< >", tcDiamond},
	{"[]", tcBox}, {"[ ]", tcBox},
	{"xor", tcXor},
	{"∧", tcAnd}, {"∩", tcAnd},
	{"∨", tcOr}, {"∪", tcOr},
	{"¬", tcNeg}, {"~", tcNeg},
	{"⊕", tcXor}, {"^", tcXor},
	{"μ", tcMu}, {"ν", tcNu},
}

// singleRuneOperators covers the one-character-wide punctuation that isn't
// ambiguous with a longer operator.
var singleRuneOperators = map[rune]tokenClass{
	'!': tcNeg,
	'&': tcAnd,
	'|': tcOr,
	'.': tcDot,
	'(': tcLParen,
	')': tcRParen,
}

// lex tokenizes the entirety of src and returns the token stream followed by
// a trailing EOF token, or a *lexError describing the first unrecognized
// input.
func lex(src string) ([]token, error) {
	// Normalize to NFC so that the unicode operator aliases (¬, ∧, ∨, μ, ν,
	// →, ⇔, ⊕, ...) compare equal regardless of how the input text composed
	// accents/combining marks; formulae that mix typed ASCII and pasted
	// unicode symbols are otherwise a common source of "identical-looking
	// but unequal" lexing bugs.
	src = norm.NFC.String(src)

	lines := strings.Split(src, "\n")

	var toks []token
	for lineIdx, lineText := range lines {
		lineNo := lineIdx + 1
		runes := []rune(lineText)
		i := 0
		for i < len(runes) {
			r := runes[i]
			if unicode.IsSpace(r) {
				i++
				continue
			}

			startPos := i + 1 // 1-indexed

			if matched, class, width := matchMultiRune(runes, i); matched {
				toks = append(toks, token{class: class, lexeme: string(runes[i : i+width]), line: lineNo, pos: startPos, fullLine: lineText})
				i += width
				continue
			}

			if class, ok := singleRuneOperators[r]; ok {
				toks = append(toks, token{class: class, lexeme: string(r), line: lineNo, pos: startPos, fullLine: lineText})
				i++
				continue
			}

			if unicode.IsDigit(r) && (r == '0' || r == '1') {
				// bare 0/1 literal
				toks = append(toks, token{class: tcLit, lexeme: string(r), litValue: r == '1', line: lineNo, pos: startPos, fullLine: lineText})
				i++
				continue
			}

			if isIdentStart(r) {
				j := i + 1
				for j < len(runes) && isIdentCont(runes[j]) {
					j++
				}
				word := string(runes[i:j])
				switch strings.ToLower(word) {
				case "true":
					toks = append(toks, token{class: tcLit, lexeme: word, litValue: true, line: lineNo, pos: startPos, fullLine: lineText})
				case "false":
					toks = append(toks, token{class: tcLit, lexeme: word, litValue: false, line: lineNo, pos: startPos, fullLine: lineText})
				case "mu":
					toks = append(toks, token{class: tcMu, lexeme: word, line: lineNo, pos: startPos, fullLine: lineText})
				case "nu":
					toks = append(toks, token{class: tcNu, lexeme: word, line: lineNo, pos: startPos, fullLine: lineText})
				case "xor":
					toks = append(toks, token{class: tcXor, lexeme: word, line: lineNo, pos: startPos, fullLine: lineText})
				default:
					toks = append(toks, token{class: tcIdent, lexeme: word, line: lineNo, pos: startPos, fullLine: lineText})
				}
				i = j
				continue
			}

			return nil, &lexError{
				msg:      "unexpected character " + string(r),
				line:     lineNo,
				pos:      startPos,
				fullLine: lineText,
				source:   string(r),
			}
		}
	}

	toks = append(toks, token{class: tcEOF, lexeme: "", line: len(lines), pos: 1})
	return toks, nil
}

func matchMultiRune(runes []rune, i int) (bool, tokenClass, int) {
	remaining := runes[i:]
	for _, op := range multiRuneOperators {
		opRunes := []rune(op.lit)
		if len(opRunes) <= len(remaining) && string(remaining[:len(opRunes)]) == op.lit {
			return true, op.class, len(opRunes)
		}
	}
	return false, 0, 0
}

// isIdentStart reports whether r can begin a proposition/variable
// identifier: any letter or underscore. Identifiers are distinguished as
// VAR vs PROP purely by the case of their first letter (upper -> VAR,
// lower -> PROP).
func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
