// Package lexer provides lexical analysis for IEC 61131-3 Structured Text.
package lexer

import "strings"

// TokenType represents the type of a token.
type TokenType int

// Token types
const (
	// Special tokens
	TOKEN_ILLEGAL TokenType = iota
	TOKEN_EOF
	TOKEN_COMMENT

	// Literals
	TOKEN_IDENT  // identifier
	TOKEN_INT    // integer literal (123, 16#FF, 2#1010)
	TOKEN_REAL   // real literal (1.5, 2.0E3)
	TOKEN_STRING // string literal ('abc')
	TOKEN_TYPED  // typed literal (INT#5, T#5s)

	// Operators
	TOKEN_PLUS      // +
	TOKEN_MINUS     // -
	TOKEN_ASTERISK  // *
	TOKEN_SLASH     // /
	TOKEN_POWER     // **
	TOKEN_ASSIGN    // :=
	TOKEN_EQ        // =
	TOKEN_NEQ       // <>
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_LTE       // <=
	TOKEN_GTE       // >=
	TOKEN_AMPERSAND // &
	TOKEN_OUTPUT    // =>

	// Delimiters
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_COLON     // :
	TOKEN_DOT       // .
	TOKEN_RANGE     // ..

	// Keywords
	TOKEN_TRUE       // TRUE
	TOKEN_FALSE      // FALSE
	TOKEN_AND        // AND
	TOKEN_OR         // OR
	TOKEN_XOR        // XOR
	TOKEN_NOT        // NOT
	TOKEN_MOD        // MOD
	TOKEN_IF         // IF
	TOKEN_THEN       // THEN
	TOKEN_ELSIF      // ELSIF
	TOKEN_ELSE       // ELSE
	TOKEN_END_IF     // END_IF
	TOKEN_CASE       // CASE
	TOKEN_OF         // OF
	TOKEN_END_CASE   // END_CASE
	TOKEN_FOR        // FOR
	TOKEN_TO         // TO
	TOKEN_BY         // BY
	TOKEN_DO         // DO
	TOKEN_END_FOR    // END_FOR
	TOKEN_WHILE      // WHILE
	TOKEN_END_WHILE  // END_WHILE
	TOKEN_REPEAT     // REPEAT
	TOKEN_UNTIL      // UNTIL
	TOKEN_END_REPEAT // END_REPEAT
	TOKEN_RETURN     // RETURN
	TOKEN_EXIT       // EXIT
)

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Offset  int // byte offset of the first character in the input
}

// tokenTypeNames maps TokenType to its string representation.
var tokenTypeNames = map[TokenType]string{
	// Special tokens
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_EOF:     "EOF",
	TOKEN_COMMENT: "COMMENT",

	// Literals
	TOKEN_IDENT:  "IDENT",
	TOKEN_INT:    "INT",
	TOKEN_REAL:   "REAL",
	TOKEN_STRING: "STRING",
	TOKEN_TYPED:  "TYPED",

	// Operators
	TOKEN_PLUS:      "+",
	TOKEN_MINUS:     "-",
	TOKEN_ASTERISK:  "*",
	TOKEN_SLASH:     "/",
	TOKEN_POWER:     "**",
	TOKEN_ASSIGN:    ":=",
	TOKEN_EQ:        "=",
	TOKEN_NEQ:       "<>",
	TOKEN_LT:        "<",
	TOKEN_GT:        ">",
	TOKEN_LTE:       "<=",
	TOKEN_GTE:       ">=",
	TOKEN_AMPERSAND: "&",
	TOKEN_OUTPUT:    "=>",

	// Delimiters
	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_LBRACKET:  "[",
	TOKEN_RBRACKET:  "]",
	TOKEN_COMMA:     ",",
	TOKEN_SEMICOLON: ";",
	TOKEN_COLON:     ":",
	TOKEN_DOT:       ".",
	TOKEN_RANGE:     "..",

	// Keywords
	TOKEN_TRUE:       "TRUE",
	TOKEN_FALSE:      "FALSE",
	TOKEN_AND:        "AND",
	TOKEN_OR:         "OR",
	TOKEN_XOR:        "XOR",
	TOKEN_NOT:        "NOT",
	TOKEN_MOD:        "MOD",
	TOKEN_IF:         "IF",
	TOKEN_THEN:       "THEN",
	TOKEN_ELSIF:      "ELSIF",
	TOKEN_ELSE:       "ELSE",
	TOKEN_END_IF:     "END_IF",
	TOKEN_CASE:       "CASE",
	TOKEN_OF:         "OF",
	TOKEN_END_CASE:   "END_CASE",
	TOKEN_FOR:        "FOR",
	TOKEN_TO:         "TO",
	TOKEN_BY:         "BY",
	TOKEN_DO:         "DO",
	TOKEN_END_FOR:    "END_FOR",
	TOKEN_WHILE:      "WHILE",
	TOKEN_END_WHILE:  "END_WHILE",
	TOKEN_REPEAT:     "REPEAT",
	TOKEN_UNTIL:      "UNTIL",
	TOKEN_END_REPEAT: "END_REPEAT",
	TOKEN_RETURN:     "RETURN",
	TOKEN_EXIT:       "EXIT",
}

// String returns the string representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps upper-case keyword spellings to their token types.
var keywords = map[string]TokenType{
	"TRUE":       TOKEN_TRUE,
	"FALSE":      TOKEN_FALSE,
	"AND":        TOKEN_AND,
	"OR":         TOKEN_OR,
	"XOR":        TOKEN_XOR,
	"NOT":        TOKEN_NOT,
	"MOD":        TOKEN_MOD,
	"IF":         TOKEN_IF,
	"THEN":       TOKEN_THEN,
	"ELSIF":      TOKEN_ELSIF,
	"ELSE":       TOKEN_ELSE,
	"END_IF":     TOKEN_END_IF,
	"CASE":       TOKEN_CASE,
	"OF":         TOKEN_OF,
	"END_CASE":   TOKEN_END_CASE,
	"FOR":        TOKEN_FOR,
	"TO":         TOKEN_TO,
	"BY":         TOKEN_BY,
	"DO":         TOKEN_DO,
	"END_FOR":    TOKEN_END_FOR,
	"WHILE":      TOKEN_WHILE,
	"END_WHILE":  TOKEN_END_WHILE,
	"REPEAT":     TOKEN_REPEAT,
	"UNTIL":      TOKEN_UNTIL,
	"END_REPEAT": TOKEN_END_REPEAT,
	"RETURN":     TOKEN_RETURN,
	"EXIT":       TOKEN_EXIT,
}

// LookupIdent checks if an identifier is a keyword.
// Structured Text keywords are case-insensitive.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// IsKeyword reports whether the token type is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TOKEN_TRUE && t <= TOKEN_EXIT
}
