package program

import (
	"strings"

	"github.com/zurustar/stsim/pkg/compiler/lexer"
)

// StripComments blanks out (* *) and // comments. Comment characters are
// replaced with spaces and newlines are kept, so offsets and line numbers of
// the remaining text do not move. Comment markers inside string literals are
// left alone.
func StripComments(source string) string {
	buf := []byte(source)
	l := lexer.New(source)
	for {
		tok := l.NextToken()
		if tok.Type == lexer.TOKEN_EOF {
			break
		}
		if tok.Type != lexer.TOKEN_COMMENT {
			continue
		}
		end := tok.Offset + len(tok.Literal)
		for i := tok.Offset; i < end && i < len(buf); i++ {
			if buf[i] != '\n' {
				buf[i] = ' '
			}
		}
	}
	return string(buf)
}

// normalizeNewlines converts CRLF and CR line endings to LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// cutAfter lists keywords that end a statement on the same physical line.
var cutAfter = map[lexer.TokenType]bool{
	lexer.TOKEN_SEMICOLON: true,
	lexer.TOKEN_THEN:      true,
	lexer.TOKEN_ELSE:      true,
	lexer.TOKEN_DO:        true,
}

// cutBefore lists keywords that start a new statement.
var cutBefore = map[lexer.TokenType]bool{
	lexer.TOKEN_ELSIF:      true,
	lexer.TOKEN_ELSE:       true,
	lexer.TOKEN_END_IF:     true,
	lexer.TOKEN_END_FOR:    true,
	lexer.TOKEN_END_WHILE:  true,
	lexer.TOKEN_END_CASE:   true,
	lexer.TOKEN_END_REPEAT: true,
}

// SplitStatements splits one comment-free physical line into statements.
// A line is cut after ';', THEN, ELSE and DO, and before ELSIF, ELSE and the
// END_ keywords, so "IF x THEN y := TRUE; END_IF;" yields three statements.
// Statement text keeps its terminating ';'. Empty statements are dropped.
func SplitStatements(line string) []string {
	var stmts []string
	start := 0
	emit := func(end int) {
		if end > len(line) {
			end = len(line)
		}
		s := strings.TrimSpace(line[start:end])
		if s != "" && s != ";" {
			stmts = append(stmts, s)
		}
		start = end
	}

	l := lexer.New(line)
	for {
		tok := l.NextToken()
		if tok.Type == lexer.TOKEN_EOF {
			break
		}
		if tok.Type == lexer.TOKEN_ILLEGAL && (strings.HasPrefix(tok.Literal, "'") || strings.HasPrefix(tok.Literal, "\"")) {
			// 閉じていない文字列は行末まで続く
			break
		}
		if cutBefore[tok.Type] && strings.TrimSpace(line[start:tok.Offset]) != "" {
			emit(tok.Offset)
		}
		if cutAfter[tok.Type] {
			emit(tok.Offset + len(tok.Literal))
		}
	}
	emit(len(line))
	return stmts
}
