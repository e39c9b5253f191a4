package lexer

import "testing"

func tokenTypes(t *testing.T, source string) []TokenType {
	t.Helper()
	toks, err := Tokenize("<test>", source)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", source, err)
	}
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestTokenize_Keywords(t *testing.T) {
	tests := []struct {
		source string
		want   TokenType
	}{
		{"local", KW_LOCAL},
		{"function", KW_FUNCTION},
		{"if", KW_IF},
		{"then", KW_THEN},
		{"else", KW_ELSE},
		{"for", KW_FOR},
		{"in", KW_IN},
		{"import", KW_IMPORT},
		{"importstr", KW_IMPORTSTR},
		{"error", KW_ERROR},
		{"self", KW_SELF},
		{"super", KW_SUPER},
		{"tailstrict", KW_TAILSTRICT},
		{"true", KW_TRUE},
		{"false", KW_FALSE},
		{"null", KW_NULL},
		{"assert", KW_ASSERT},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			toks, err := Tokenize("<test>", tt.source)
			if err != nil {
				t.Fatalf("Tokenize: %v", err)
			}
			if toks[0].Type != tt.want {
				t.Errorf("Tokenize(%q)[0].Type = %v, want %v", tt.source, toks[0].Type, tt.want)
			}
		})
	}
}

func TestTokenize_IdentifierIsNotKeyword(t *testing.T) {
	toks, err := Tokenize("<test>", "localVar")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Type != IDENT || toks[0].Literal != "localVar" {
		t.Errorf("got %+v, want IDENT localVar", toks[0])
	}
}

func TestTokenize_Numbers(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{"1e10", "1e10"},
		{"1.5e-3", "1.5e-3"},
		{"2E+5", "2E+5"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			toks, err := Tokenize("<test>", tt.source)
			if err != nil {
				t.Fatalf("Tokenize(%q): %v", tt.source, err)
			}
			if toks[0].Type != NUMBER || toks[0].Literal != tt.want {
				t.Errorf("got %+v, want NUMBER %q", toks[0], tt.want)
			}
		})
	}
}

func TestTokenize_MalformedExponentErrors(t *testing.T) {
	if _, err := Tokenize("<test>", "1e"); err == nil {
		t.Fatal("expected error for malformed exponent")
	}
}

func TestTokenize_StringEscapes(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`"hello"`, "hello"},
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"quote:\""`, `quote:"`},
		{`"back\\slash"`, `back\slash`},
		{`"unicode:A"`, "unicode:A"},
		{`'single quoted'`, "single quoted"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			toks, err := Tokenize("<test>", tt.source)
			if err != nil {
				t.Fatalf("Tokenize(%q): %v", tt.source, err)
			}
			if toks[0].Type != STRING || toks[0].Value != tt.want {
				t.Errorf("got %+v, want STRING %q", toks[0], tt.want)
			}
		})
	}
}

func TestTokenize_UnterminatedStringErrors(t *testing.T) {
	if _, err := Tokenize("<test>", `"unterminated`); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestTokenize_UnknownEscapeErrors(t *testing.T) {
	if _, err := Tokenize("<test>", `"\q"`); err == nil {
		t.Fatal("expected error for unknown escape sequence")
	}
}

func TestTokenize_TextBlock(t *testing.T) {
	source := "|||\n  line one\n  line two\n|||"
	toks, err := Tokenize("<test>", source)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Type != VERBATIM_STRING {
		t.Fatalf("got type %v, want VERBATIM_STRING", toks[0].Type)
	}
}

func TestTokenize_CommentsAreSkipped(t *testing.T) {
	tests := []string{
		"1 # line comment\n+ 2",
		"1 // line comment\n+ 2",
		"1 /* block comment */ + 2",
	}
	for _, source := range tests {
		t.Run(source, func(t *testing.T) {
			types := tokenTypes(t, source)
			// NUMBER, PLUS, NUMBER, EOF
			want := []TokenType{NUMBER, PLUS, NUMBER, EOF}
			if len(types) != len(want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", source, types, want)
			}
			for i := range want {
				if types[i] != want[i] {
					t.Errorf("Tokenize(%q)[%d] = %v, want %v", source, i, types[i], want[i])
				}
			}
		})
	}
}

func TestTokenize_Operators(t *testing.T) {
	tests := []struct {
		source string
		want   []TokenType
	}{
		{"+", []TokenType{PLUS, EOF}},
		{"+:", []TokenType{PLUS_COLON, EOF}},
		{"==", []TokenType{EQ, EOF}},
		{"!=", []TokenType{NE, EOF}},
		{"!", []TokenType{BANG, EOF}},
		{"<=", []TokenType{LE, EOF}},
		{"<<", []TokenType{SHL, EOF}},
		{"<", []TokenType{LT, EOF}},
		{">=", []TokenType{GE, EOF}},
		{">>", []TokenType{SHR, EOF}},
		{">", []TokenType{GT, EOF}},
		{"&&", []TokenType{AND_AND, EOF}},
		{"&", []TokenType{AMP, EOF}},
		{"||", []TokenType{OR_OR, EOF}},
		{"|", []TokenType{PIPE, EOF}},
		{"::", []TokenType{COLON_COLON, EOF}},
		{":::", []TokenType{COLON_COLON_COLON, EOF}},
		{":", []TokenType{COLON, EOF}},
		{"=", []TokenType{ASSIGN, EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			types := tokenTypes(t, tt.source)
			if len(types) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.source, types, tt.want)
			}
			for i := range tt.want {
				if types[i] != tt.want[i] {
					t.Errorf("Tokenize(%q)[%d] = %v, want %v", tt.source, i, types[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenize_UnexpectedCharacterErrors(t *testing.T) {
	if _, err := Tokenize("<test>", "@"); err == nil {
		t.Fatal("expected error for unexpected character")
	}
}

func TestTokenize_TracksLineAndColumn(t *testing.T) {
	toks, err := Tokenize("<test>", "1\n  2")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Pos.Line != 1 {
		t.Errorf("first token line = %d, want 1", toks[0].Pos.Line)
	}
	if toks[1].Pos.Line != 2 || toks[1].Pos.Column != 3 {
		t.Errorf("second token pos = %+v, want line 2 column 3", toks[1].Pos)
	}
}

func TestTokenize_EmptySourceIsJustEOF(t *testing.T) {
	toks, err := Tokenize("<test>", "")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(toks) != 1 || toks[0].Type != EOF {
		t.Errorf("got %+v, want a single EOF token", toks)
	}
}
