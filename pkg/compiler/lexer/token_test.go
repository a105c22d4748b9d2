package lexer

import "testing"

func TestTokenTypeString(t *testing.T) {
	tests := []struct {
		tokenType TokenType
		expected  string
	}{
		// Special tokens
		{TOKEN_ILLEGAL, "ILLEGAL"},
		{TOKEN_EOF, "EOF"},
		{TOKEN_COMMENT, "COMMENT"},

		// Literals
		{TOKEN_IDENT, "IDENT"},
		{TOKEN_INT, "INT"},
		{TOKEN_REAL, "REAL"},
		{TOKEN_STRING, "STRING"},
		{TOKEN_TYPED, "TYPED"},

		// Operators
		{TOKEN_ASSIGN, ":="},
		{TOKEN_EQ, "="},
		{TOKEN_NEQ, "<>"},
		{TOKEN_POWER, "**"},
		{TOKEN_LTE, "<="},
		{TOKEN_GTE, ">="},

		// Keywords
		{TOKEN_IF, "IF"},
		{TOKEN_ELSIF, "ELSIF"},
		{TOKEN_END_IF, "END_IF"},
		{TOKEN_MOD, "MOD"},

		{TokenType(9999), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.tokenType.String(); got != tt.expected {
			t.Errorf("TokenType(%d).String() = %q, want %q", tt.tokenType, got, tt.expected)
		}
	}
}

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident    string
		expected TokenType
	}{
		{"IF", TOKEN_IF},
		{"if", TOKEN_IF},
		{"Elsif", TOKEN_ELSIF},
		{"end_if", TOKEN_END_IF},
		{"true", TOKEN_TRUE},
		{"False", TOKEN_FALSE},
		{"and", TOKEN_AND},
		{"Mod", TOKEN_MOD},
		{"motor", TOKEN_IDENT},
		{"IF_done", TOKEN_IDENT},
	}

	for _, tt := range tests {
		if got := LookupIdent(tt.ident); got != tt.expected {
			t.Errorf("LookupIdent(%q) = %v, want %v", tt.ident, got, tt.expected)
		}
	}
}

func TestIsKeyword(t *testing.T) {
	if !TOKEN_IF.IsKeyword() || !TOKEN_EXIT.IsKeyword() {
		t.Error("IF and EXIT should be keywords")
	}
	if TOKEN_IDENT.IsKeyword() || TOKEN_ASSIGN.IsKeyword() {
		t.Error("IDENT and := should not be keywords")
	}
}
