package content

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// ContentLexer tokenizes PDF content streams
type ContentLexer struct {
	data []byte
	pos  int
}

// TokenType for content streams
type TokenType int

const (
	TokenOperator TokenType = iota
	TokenOperand
)

// Token represents a content stream token.
//
// Operand values are float64 for numbers, string for names (without the
// leading slash), []byte for string literals and []interface{} for arrays.
type Token struct {
	Type  TokenType
	Value interface{}
}

// NewContentLexer creates a new content lexer
func NewContentLexer(data []byte) *ContentLexer {
	return &ContentLexer{data: data, pos: 0}
}

// NextToken returns the next token from the content stream, or io.EOF
func (l *ContentLexer) NextToken() (*Token, error) {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.data) {
		return nil, io.EOF
	}

	ch := l.data[l.pos]

	switch {
	case ch == '(':
		return l.readString()
	case ch == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return &Token{Type: TokenOperand, Value: "<<"}, nil
		}
		return l.readHexString()
	case ch == '[':
		return l.readArray()
	case ch == '/':
		return l.readName()
	case isNumberStart(ch):
		return l.readNumber()
	default:
		tok := l.readOperator()
		if tok.Value == "ID" {
			l.skipInlineImage()
		}
		return tok, nil
	}
}

func isNumberStart(ch byte) bool {
	return ch == '+' || ch == '-' || ch == '.' || (ch >= '0' && ch <= '9')
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == 0
}

func (l *ContentLexer) skipWhitespaceAndComments() {
	for l.pos < len(l.data) {
		ch := l.data[l.pos]
		switch {
		case isSpace(ch):
			l.pos++
		case ch == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

// skipInlineImage jumps past the binary data of an inline image to the
// whitespace before its EI operator.
func (l *ContentLexer) skipInlineImage() {
	if l.pos < len(l.data) && isSpace(l.data[l.pos]) {
		l.pos++
	}
	for i := l.pos; i+2 <= len(l.data); i++ {
		if l.data[i] != 'E' || l.data[i+1] != 'I' {
			continue
		}
		before := i == 0 || isSpace(l.data[i-1])
		after := i+2 == len(l.data) || isSpace(l.data[i+2])
		if before && after {
			l.pos = i
			return
		}
	}
	l.pos = len(l.data)
}

// readString reads a string literal
func (l *ContentLexer) readString() (*Token, error) {
	l.pos++ // Skip (
	start := l.pos
	parenCount := 1
	escaped := false

	for l.pos < len(l.data) && parenCount > 0 {
		ch := l.data[l.pos]
		if escaped {
			escaped = false
		} else {
			switch ch {
			case '\\':
				escaped = true
			case '(':
				parenCount++
			case ')':
				parenCount--
			}
		}
		l.pos++
	}

	if parenCount > 0 {
		return nil, fmt.Errorf("unterminated string at offset %d", start-1)
	}

	return &Token{Type: TokenOperand, Value: processEscapes(l.data[start : l.pos-1])}, nil
}

// readHexString reads a hexadecimal string
func (l *ContentLexer) readHexString() (*Token, error) {
	l.pos++ // Skip <
	start := l.pos

	end := bytes.IndexByte(l.data[l.pos:], '>')
	if end < 0 {
		return nil, fmt.Errorf("unterminated hex string at offset %d", start-1)
	}
	hex := l.data[start : start+end]
	l.pos = start + end + 1

	cleanHex := make([]byte, 0, len(hex)+1)
	for _, b := range hex {
		if (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') {
			cleanHex = append(cleanHex, b)
		}
	}
	// An odd trailing digit is padded with 0
	if len(cleanHex)%2 == 1 {
		cleanHex = append(cleanHex, '0')
	}

	result := make([]byte, 0, len(cleanHex)/2)
	for i := 0; i < len(cleanHex); i += 2 {
		val, _ := strconv.ParseUint(string(cleanHex[i:i+2]), 16, 8)
		result = append(result, byte(val))
	}

	return &Token{Type: TokenOperand, Value: result}, nil
}

// readArray reads an array, including nested arrays
func (l *ContentLexer) readArray() (*Token, error) {
	l.pos++ // Skip [
	array := []interface{}{}

	for {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.data) {
			return nil, fmt.Errorf("unterminated array")
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return &Token{Type: TokenOperand, Value: array}, nil
		}

		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		array = append(array, tok.Value)
	}
}

// readName reads a name object
func (l *ContentLexer) readName() (*Token, error) {
	l.pos++ // Skip /
	start := l.pos

	for l.pos < len(l.data) {
		ch := l.data[l.pos]
		if isSpace(ch) || ch == '(' || ch == ')' || ch == '<' || ch == '>' ||
			ch == '[' || ch == ']' || ch == '/' || ch == '%' {
			break
		}
		l.pos++
	}

	return &Token{Type: TokenOperand, Value: string(l.data[start:l.pos])}, nil
}

// readNumber reads a numeric value
func (l *ContentLexer) readNumber() (*Token, error) {
	start := l.pos
	hasDecimal := false

	for l.pos < len(l.data) {
		ch := l.data[l.pos]
		if ch == '.' {
			if hasDecimal {
				break
			}
			hasDecimal = true
		} else if ch == '+' || ch == '-' {
			if l.pos != start {
				break
			}
		} else if ch < '0' || ch > '9' {
			break
		}
		l.pos++
	}

	val, _ := strconv.ParseFloat(string(l.data[start:l.pos]), 64)
	return &Token{Type: TokenOperand, Value: val}, nil
}

// readOperator reads an operator or keyword
func (l *ContentLexer) readOperator() *Token {
	start := l.pos

	for l.pos < len(l.data) {
		ch := l.data[l.pos]
		if l.pos > start && (isSpace(ch) || ch == '(' || ch == '<' || ch == '[' || ch == ']' ||
			ch == '/' || ch == '%' || isNumberStart(ch)) {
			break
		}
		l.pos++
	}

	return &Token{Type: TokenOperator, Value: string(l.data[start:l.pos])}
}

// processEscapes processes escape sequences in a string literal
func processEscapes(text []byte) []byte {
	var result []byte
	escaped := false

	for i := 0; i < len(text); i++ {
		if !escaped {
			if text[i] == '\\' {
				escaped = true
			} else {
				result = append(result, text[i])
			}
			continue
		}

		escaped = false
		switch text[i] {
		case 'n':
			result = append(result, '\n')
		case 'r':
			result = append(result, '\r')
		case 't':
			result = append(result, '\t')
		case 'b':
			result = append(result, '\b')
		case 'f':
			result = append(result, '\f')
		case '\r', '\n':
			// Line continuation
			if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			if text[i] >= '0' && text[i] <= '7' {
				j := i
				for j < len(text) && j < i+3 && text[j] >= '0' && text[j] <= '7' {
					j++
				}
				val, _ := strconv.ParseUint(string(text[i:j]), 8, 16)
				result = append(result, byte(val))
				i = j - 1
			} else {
				result = append(result, text[i])
			}
		}
	}

	return result
}
