package lexer

// Lexer tokenizes Structured Text source code.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	line         int  // current line number
	column       int  // current column number
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Tokenize returns every token of the input up to and including EOF.
// Comments are dropped.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_COMMENT {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			return tokens
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()

	tok.Line = l.line
	tok.Column = l.column
	tok.Offset = l.position

	switch l.ch {
	case ':':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.makeToken(TOKEN_ASSIGN, tok)
		} else {
			tok = l.makeToken(TOKEN_COLON, tok)
		}
	case '=':
		if l.peekChar() == '>' {
			l.readChar()
			tok = l.makeToken(TOKEN_OUTPUT, tok)
		} else {
			tok = l.makeToken(TOKEN_EQ, tok)
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = l.makeToken(TOKEN_LTE, tok)
		case '>':
			l.readChar()
			tok = l.makeToken(TOKEN_NEQ, tok)
		default:
			tok = l.makeToken(TOKEN_LT, tok)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.makeToken(TOKEN_GTE, tok)
		} else {
			tok = l.makeToken(TOKEN_GT, tok)
		}
	case '+':
		tok = l.makeToken(TOKEN_PLUS, tok)
	case '-':
		tok = l.makeToken(TOKEN_MINUS, tok)
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			tok = l.makeToken(TOKEN_POWER, tok)
		} else {
			tok = l.makeToken(TOKEN_ASTERISK, tok)
		}
	case '/':
		if l.peekChar() == '/' {
			tok.Type = TOKEN_COMMENT
			tok.Literal = l.readComment()
			return tok
		}
		tok = l.makeToken(TOKEN_SLASH, tok)
	case '(':
		if l.peekChar() == '*' {
			tok.Type = TOKEN_COMMENT
			tok.Literal = l.readBlockComment()
			return tok
		}
		tok = l.makeToken(TOKEN_LPAREN, tok)
	case ')':
		tok = l.makeToken(TOKEN_RPAREN, tok)
	case '[':
		tok = l.makeToken(TOKEN_LBRACKET, tok)
	case ']':
		tok = l.makeToken(TOKEN_RBRACKET, tok)
	case ',':
		tok = l.makeToken(TOKEN_COMMA, tok)
	case ';':
		tok = l.makeToken(TOKEN_SEMICOLON, tok)
	case '&':
		tok = l.makeToken(TOKEN_AMPERSAND, tok)
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			tok = l.makeToken(TOKEN_RANGE, tok)
		} else {
			tok = l.makeToken(TOKEN_DOT, tok)
		}
	case '\'', '"':
		literal, ok := l.readString()
		if !ok {
			tok.Type = TOKEN_ILLEGAL
			tok.Literal = l.input[tok.Offset:l.position]
			return tok
		}
		tok.Type = TOKEN_STRING
		tok.Literal = literal
	case 0:
		tok.Literal = ""
		tok.Type = TOKEN_EOF
		return tok
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			if l.ch == '#' {
				// 型付きリテラル (INT#5, T#5s, BOOL#TRUE)
				tok.Literal = l.readTypedLiteral(tok.Offset)
				tok.Type = TOKEN_TYPED
				return tok
			}
			tok.Type = LookupIdent(tok.Literal)
			return tok
		} else if isDigit(l.ch) {
			return l.readNumber(tok)
		}
		tok = l.makeToken(TOKEN_ILLEGAL, tok)
	}

	l.readChar()
	return tok
}

// makeToken completes a token that ends at the current character.
func (l *Lexer) makeToken(tokenType TokenType, start Token) Token {
	start.Type = tokenType
	start.Literal = l.input[start.Offset:l.readPosition]
	return start
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	return l.peekCharAt(0)
}

// peekCharAt returns the character n positions after the next one.
func (l *Lexer) peekCharAt(n int) byte {
	if l.readPosition+n >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+n]
}

// readIdentifier reads an identifier.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readTypedLiteral reads the part after '#' of a typed literal.
func (l *Lexer) readTypedLiteral(start int) string {
	l.readChar() // consume '#'
	if l.ch == '-' || l.ch == '+' {
		l.readChar()
	}
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' || l.ch == '#' {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads a number (integer, real, or based integer such as 16#FF).
func (l *Lexer) readNumber(tok Token) Token {
	l.readDigits(isDigit)

	// 基数付き整数 (2#, 8#, 16#)
	if l.ch == '#' {
		l.readChar()
		l.readDigits(isHexDigit)
		tok.Type = TOKEN_INT
		tok.Literal = l.input[tok.Offset:l.position]
		return tok
	}

	isReal := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isReal = true
		l.readChar() // consume '.'
		l.readDigits(isDigit)
	}

	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharAt(1))) {
			isReal = true
			l.readChar() // consume 'e'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			l.readDigits(isDigit)
		}
	}

	tok.Literal = l.input[tok.Offset:l.position]
	if isReal {
		tok.Type = TOKEN_REAL
	} else {
		tok.Type = TOKEN_INT
	}
	return tok
}

// readDigits consumes digits accepted by valid and '_' separators.
func (l *Lexer) readDigits(valid func(byte) bool) {
	for valid(l.ch) || l.ch == '_' {
		l.readChar()
	}
}

// readString reads a string literal. '$' escapes the next character.
// It returns false when the closing quote is missing.
func (l *Lexer) readString() (string, bool) {
	quote := l.ch
	var buf []byte
	for {
		l.readChar()
		switch l.ch {
		case 0:
			return string(buf), false
		case quote:
			return string(buf), true
		case '$':
			l.readChar()
			if l.ch == 0 {
				return string(buf), false
			}
			buf = append(buf, unescape(l.ch))
		default:
			buf = append(buf, l.ch)
		}
	}
}

// unescape resolves the character after '$' in a string literal.
func unescape(ch byte) byte {
	switch ch {
	case 'N', 'n', 'L', 'l':
		return '\n'
	case 'R', 'r':
		return '\r'
	case 'T', 't':
		return '\t'
	default:
		return ch
	}
}

// readComment reads a single-line comment.
func (l *Lexer) readComment() string {
	position := l.position
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readBlockComment reads a block comment (* ... *)
func (l *Lexer) readBlockComment() string {
	position := l.position
	l.readChar() // consume (
	l.readChar() // consume *

	for {
		if l.ch == 0 {
			break // EOF
		}
		if l.ch == '*' && l.peekChar() == ')' {
			l.readChar() // consume *
			l.readChar() // consume )
			break
		}
		l.readChar()
	}

	return l.input[position:l.position]
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// isLetter checks if a character can start an identifier.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit checks if a character is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isHexDigit checks if a character is a hexadecimal digit.
func isHexDigit(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
