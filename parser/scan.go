package parser

import "strings"

type itemKind uint8

const (
	itemEOF itemKind = iota
	itemIdent
	itemString
	itemBadString
	itemPipe
	itemAmpersand
	itemTilde
	itemLParen
	itemRParen
	itemLBrace
	itemRBrace
	itemLBracket
	itemRBracket
	itemLAngle
	itemRAngle
	itemComma
	itemSemicolon
	itemColon
	itemArrow
	itemEllipsis
	itemInvalid
)

func (k itemKind) String() string {
	switch k {
	case itemEOF:
		return "end of input"
	case itemIdent:
		return "a name"
	case itemString:
		return "a string literal"
	case itemPipe:
		return "'|'"
	case itemAmpersand:
		return "'&'"
	case itemTilde:
		return "'~'"
	case itemLParen:
		return "'('"
	case itemRParen:
		return "')'"
	case itemLBrace:
		return "'{'"
	case itemRBrace:
		return "'}'"
	case itemLBracket:
		return "'['"
	case itemRBracket:
		return "']'"
	case itemLAngle:
		return "'<'"
	case itemRAngle:
		return "'>'"
	case itemComma:
		return "','"
	case itemSemicolon:
		return "';'"
	case itemColon:
		return "':'"
	case itemArrow:
		return "'->'"
	case itemEllipsis:
		return "'...'"
	default:
		return "invalid input"
	}
}

// item is one lexeme together with its byte offsets into the input. For
// itemString, text holds the decoded value rather than the raw source.
type item struct {
	kind       itemKind
	text       string
	start, end int
}

func (i item) describe() string {
	switch i.kind {
	case itemEOF:
		return "end of input"
	case itemString, itemBadString:
		return "a string literal"
	default:
		return "'" + i.text + "'"
	}
}

type scanner struct {
	src string
	pos int
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func (s *scanner) next() item {
	s.skipSpace()
	start := s.pos
	if s.pos >= len(s.src) {
		return item{kind: itemEOF, start: start, end: start}
	}
	c := s.src[s.pos]
	if isIdentStart(c) {
		for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
			s.pos++
		}
		return item{kind: itemIdent, text: s.src[start:s.pos], start: start, end: s.pos}
	}
	if c == '"' || c == '\'' {
		return s.scanString(c)
	}
	s.pos++
	kind := itemInvalid
	switch c {
	case '|':
		kind = itemPipe
	case '&':
		kind = itemAmpersand
	case '~':
		kind = itemTilde
	case '(':
		kind = itemLParen
	case ')':
		kind = itemRParen
	case '{':
		kind = itemLBrace
	case '}':
		kind = itemRBrace
	case '[':
		kind = itemLBracket
	case ']':
		kind = itemRBracket
	case '<':
		kind = itemLAngle
	case '>':
		kind = itemRAngle
	case ',':
		kind = itemComma
	case ';':
		kind = itemSemicolon
	case ':':
		kind = itemColon
	case '-':
		if s.pos < len(s.src) && s.src[s.pos] == '>' {
			s.pos++
			kind = itemArrow
		}
	case '.':
		if strings.HasPrefix(s.src[s.pos:], "..") {
			s.pos += 2
			kind = itemEllipsis
		}
	}
	return item{kind: kind, text: s.src[start:s.pos], start: start, end: s.pos}
}

// scanString decodes a quoted singleton. Both quote styles are accepted, and
// a backslash escapes the next character, with \n, \t and \r translated.
func (s *scanner) scanString(quote byte) item {
	start := s.pos
	s.pos++
	var sb strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case quote:
			s.pos++
			return item{kind: itemString, text: sb.String(), start: start, end: s.pos}
		case '\\':
			s.pos++
			if s.pos >= len(s.src) {
				return item{kind: itemBadString, text: s.src[start:s.pos], start: start, end: s.pos}
			}
			switch s.src[s.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(s.src[s.pos])
			}
			s.pos++
		case '\n':
			return item{kind: itemBadString, text: s.src[start:s.pos], start: start, end: s.pos}
		default:
			sb.WriteByte(c)
			s.pos++
		}
	}
	return item{kind: itemBadString, text: s.src[start:s.pos], start: start, end: s.pos}
}
