package program

import (
	"fmt"
	"strings"

	"github.com/zurustar/stsim/pkg/compiler/lexer"
	"github.com/zurustar/stsim/pkg/datatype"
)

// unitKeywords open a program unit.
var unitKeywords = map[string]bool{
	"FUNCTION_BLOCK": true,
	"PROGRAM":        true,
	"FUNCTION":       true,
}

// closingKeywords end a program unit.
var closingKeywords = map[string]bool{
	"END_FUNCTION_BLOCK": true,
	"END_PROGRAM":        true,
	"END_FUNCTION":       true,
}

// section describes one kind of declaration section.
type section struct {
	name      string
	class     Class
	simulated bool
}

var sections = map[string]section{
	"VAR_INPUT":    {name: "VAR_INPUT", class: ClassInput, simulated: true},
	"VAR_OUTPUT":   {name: "VAR_OUTPUT", class: ClassOutput, simulated: true},
	"VAR":          {name: "VAR", class: ClassInternal, simulated: true},
	"VAR_IN_OUT":   {name: "VAR_IN_OUT"},
	"VAR_TEMP":     {name: "VAR_TEMP"},
	"VAR_GLOBAL":   {name: "VAR_GLOBAL"},
	"VAR_EXTERNAL": {name: "VAR_EXTERNAL"},
	"VAR_ACCESS":   {name: "VAR_ACCESS"},
	"VAR_CONFIG":   {name: "VAR_CONFIG"},
}

// sectionQualifiers may follow a section keyword.
var sectionQualifiers = map[string]bool{
	"CONSTANT":   true,
	"RETAIN":     true,
	"NON_RETAIN": true,
	"PERSISTENT": true,
}

// Parse extracts the program structure from source. It never fails: problems
// are reported as warnings and the affected declarations are skipped. A
// missing section yields an empty variable list.
func Parse(source string) (*Program, []Warning) {
	p := &parser{
		prog: &Program{Source: source},
		seen: make(map[string]*Variable),
	}
	p.parse()
	return p.prog, p.warnings
}

type parser struct {
	prog     *Program
	warnings []Warning
	seen     map[string]*Variable // upper-cased name -> first declaration
}

func (p *parser) warn(line int, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) parse() {
	original := strings.Split(normalizeNewlines(p.prog.Source), "\n")
	lines := strings.Split(StripComments(normalizeNewlines(p.prog.Source)), "\n")

	bodyStart := 0
	bodyEnd := len(lines)
	var current *section
	sectionLine := 0

scan:
	for i, raw := range lines {
		text := strings.TrimSpace(raw)
		lineNo := i + 1

		// 1行に見出しや複数のセクションが並ぶこともあるので、残りがなくなるまで読む
		origin := lineStart
		for text != "" {
			if current != nil {
				decls, rest, closed := cutEndVar(text)
				p.declare(current, decls, lineNo)
				if !closed {
					break
				}
				current = nil
				bodyStart = i + 1
				text, origin = strings.TrimSpace(strings.TrimPrefix(rest, ";")), afterEndVar
				continue
			}

			word := strings.ToUpper(firstWord(text))
			rest := strings.TrimSpace(text[len(word):])
			switch {
			case unitKeywords[word] && p.prog.Unit == "":
				p.prog.Unit = word
				p.prog.Name = firstWord(rest)
				if p.prog.Name == "" {
					p.warn(lineNo, "%s has no name", word)
				}
				bodyStart = i + 1
				text, origin = strings.TrimSpace(rest[len(p.prog.Name):]), afterHeader

			case closingKeywords[word]:
				bodyEnd = i
				break scan

			case word == "END_VAR":
				p.warn(lineNo, "END_VAR without a declaration section")
				bodyStart = i + 1
				text, origin = strings.TrimSpace(strings.TrimPrefix(rest, ";")), afterEndVar

			default:
				s, ok := sections[word]
				if !ok {
					// FUNCTION の戻り値型 (": INT") などは読み飛ばす
					if origin == afterEndVar {
						p.warn(lineNo, "text after END_VAR is ignored: %q", text)
					}
					text = ""
					continue
				}
				current = &s
				sectionLine = lineNo
				text = skipQualifiers(rest)
			}
		}
	}

	if current != nil {
		p.warn(sectionLine, "%s section is not closed with END_VAR", current.name)
		return
	}

	if p.prog.Unit == "" {
		p.warn(0, "no FUNCTION_BLOCK, PROGRAM or FUNCTION header found")
	}

	for i := bodyStart; i < bodyEnd && i < len(lines); i++ {
		text := strings.TrimSpace(lines[i])
		if text == "" {
			continue
		}
		for _, stmt := range SplitStatements(text) {
			p.prog.Body = append(p.prog.Body, Line{
				Number:   i + 1,
				Code:     stmt,
				Original: original[i],
			})
		}
	}
}

// declare parses the declarations in text and adds them to the program.
func (p *parser) declare(s *section, text string, lineNo int) {
	if strings.TrimSpace(text) == "" {
		return
	}

	for _, d := range parseDeclarations(text) {
		if d.err != "" {
			p.warn(lineNo, "%s", d.err)
			continue
		}

		for _, name := range d.names {
			if !s.simulated {
				p.warn(lineNo, "%s variable %q is not simulated", s.name, name)
				continue
			}

			key := strings.ToUpper(name)
			if first, ok := p.seen[key]; ok {
				p.warn(lineNo, "duplicate declaration of %q (first declared at line %d)", name, first.Line)
				continue
			}

			t := datatype.Lookup(d.typeName)
			v := &Variable{
				Name:        name,
				Type:        t,
				Class:       s.class,
				InitialText: d.initial,
				Line:        lineNo,
			}
			if d.initial != "" {
				v.Initial = t.ParseInitial(d.initial)
			} else {
				v.Initial = t.Zero()
			}
			p.seen[key] = v

			switch s.class {
			case ClassInput:
				p.prog.Inputs = append(p.prog.Inputs, v)
			case ClassOutput:
				p.prog.Outputs = append(p.prog.Outputs, v)
			default:
				p.prog.Internals = append(p.prog.Internals, v)
			}
		}
	}
}

// declaration is one "a, b : TYPE := init" clause.
type declaration struct {
	names    []string
	typeName string
	initial  string
	err      string
}

// Where the text being scanned on a line started.
const (
	lineStart = iota
	afterHeader
	afterEndVar
)

// parseDeclarations splits text at top-level ';' and parses each clause.
func parseDeclarations(text string) []declaration {
	tokens := lexer.Tokenize(text)
	var decls []declaration

	for pos := 0; pos < len(tokens) && tokens[pos].Type != lexer.TOKEN_EOF; {
		end := clauseEnd(tokens, pos)
		clause := tokens[pos:end]
		if len(clause) > 0 {
			decls = append(decls, parseClause(text, clause, tokens[end]))
		}
		pos = end
		if tokens[pos].Type == lexer.TOKEN_SEMICOLON {
			pos++
		}
	}
	return decls
}

// clauseEnd returns the index of the ';' or EOF ending the clause at pos.
func clauseEnd(tokens []lexer.Token, pos int) int {
	depth := 0
	for i := pos; i < len(tokens); i++ {
		switch tokens[i].Type {
		case lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACKET:
			depth++
		case lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET:
			depth--
		case lexer.TOKEN_SEMICOLON:
			if depth <= 0 {
				return i
			}
		case lexer.TOKEN_EOF:
			return i
		}
	}
	return len(tokens) - 1
}

// parseClause parses "name {, name} : type [:= initial]". stop is the token
// following the clause and bounds the raw text of the type and initializer.
func parseClause(text string, clause []lexer.Token, stop lexer.Token) declaration {
	source := strings.TrimSpace(text[clause[0].Offset:stop.Offset])
	invalid := func(reason string) declaration {
		return declaration{err: fmt.Sprintf("cannot parse declaration %q: %s", source, reason)}
	}

	var d declaration
	i := 0
	for {
		if i >= len(clause) || clause[i].Type != lexer.TOKEN_IDENT {
			return invalid("expected variable name")
		}
		d.names = append(d.names, clause[i].Literal)
		i++
		if i < len(clause) && clause[i].Type == lexer.TOKEN_COMMA {
			i++
			continue
		}
		break
	}

	if i >= len(clause) || clause[i].Type != lexer.TOKEN_COLON {
		return invalid("expected ':'")
	}
	i++

	typeStart := i
	depth := 0
	for ; i < len(clause); i++ {
		switch clause[i].Type {
		case lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACKET:
			depth++
		case lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACKET:
			depth--
		}
		if clause[i].Type == lexer.TOKEN_ASSIGN && depth <= 0 {
			break
		}
	}
	if i == typeStart {
		return invalid("missing type")
	}
	typeEnd := stop.Offset
	if i < len(clause) {
		typeEnd = clause[i].Offset
	}
	d.typeName = strings.TrimSpace(text[clause[typeStart].Offset:typeEnd])

	if i < len(clause) {
		// ':=' の後ろが初期値
		if i+1 >= len(clause) {
			return invalid("missing initial value")
		}
		d.initial = strings.TrimSpace(text[clause[i+1].Offset:stop.Offset])
	}

	return d
}

// cutEndVar splits text at the END_VAR keyword. It returns the declarations
// before it, the text after it and whether END_VAR was found. String
// literals are skipped, so 'END_VAR' inside an initializer does not close the
// section.
func cutEndVar(text string) (decls, rest string, closed bool) {
	for _, tok := range lexer.Tokenize(text) {
		if tok.Type == lexer.TOKEN_IDENT && strings.EqualFold(tok.Literal, "END_VAR") {
			return text[:tok.Offset], strings.TrimSpace(text[tok.Offset+len(tok.Literal):]), true
		}
	}
	return text, "", false
}

// skipQualifiers drops CONSTANT / RETAIN after a section keyword.
func skipQualifiers(text string) string {
	for {
		w := firstWord(text)
		if w == "" || !sectionQualifiers[strings.ToUpper(w)] {
			return text
		}
		text = strings.TrimSpace(text[len(w):])
	}
}

// firstWord returns the leading identifier of text.
func firstWord(text string) string {
	i := 0
	for i < len(text) && isIdentChar(text[i]) {
		i++
	}
	return text[:i]
}

func isIdentChar(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || '0' <= ch && ch <= '9' || ch == '_'
}
