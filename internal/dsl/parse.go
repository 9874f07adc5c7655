package dsl

import (
	"fmt"
)

// ParseError reports a syntactic failure during parsing (spec.md §7
// kind 2). The core never panics on malformed input; parse errors
// always surface here.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return "dsl: parse error: " + e.Message }

// Parse tokenizes and parses src into a Graph. It is equivalent to
// FromTokens(NewTokenizer(src)) and is the entry point most callers
// want.
func Parse(src string) (*Graph, error) {
	return FromTokens(NewTokenizer(src))
}

// tokenStream is the minimal interface FromTokens needs: a peekable
// sequence of tokens. *Tokenizer satisfies it.
type tokenStream interface {
	Next() (Token, bool)
	Peek() (Token, bool)
}

// FromTokens parses a peekable token stream into a Graph. The required
// form is `digraph [NAME]? { STATEMENT (; STATEMENT)* ; }`
// (spec.md §4.6).
func FromTokens(tokens tokenStream) (*Graph, error) {
	first, ok := tokens.Next()
	if !ok || first.Kind != TokReservedText || first.Key != KeyDigraph {
		return nil, &ParseError{Message: "expected 'digraph' token at beginning of parse"}
	}

	g := NewGraph()

	next, ok := tokens.Next()
	if !ok {
		return nil, &ParseError{Message: "expected token after 'digraph'"}
	}
	switch {
	case next.Kind == TokBrace && next.Bracket == Open:
		// anonymous graph
	case next.Kind == TokText:
		g.Name, g.HasName = next.Text, true
		brace, ok := tokens.Next()
		if !ok || brace.Kind != TokBrace || brace.Bracket != Open {
			return nil, &ParseError{Message: fmt.Sprintf("expected '{' after graph name, got %q", brace.String())}
		}
	default:
		return nil, &ParseError{Message: fmt.Sprintf("unexpected token after 'digraph': %q", next.String())}
	}

	var statement []Token
	for {
		tok, ok := tokens.Next()
		if !ok {
			return nil, &ParseError{Message: "unexpected end of input inside graph body"}
		}
		if tok.Kind == TokSemicolon {
			if err := g.parseStatement(statement); err != nil {
				return nil, err
			}
			statement = nil
			continue
		}
		if tok.Kind == TokBrace && tok.Bracket == Closed && len(statement) == 0 {
			// A lone '}' terminates the statement list.
			return g, nil
		}
		statement = append(statement, tok)
		if tok.Kind == TokBrace && tok.Bracket == Closed {
			if err := g.parseStatement(statement); err != nil {
				return nil, err
			}
			return g, nil
		}
	}
}

// parseStatement dispatches one semicolon-delimited statement to the
// node-attribute form, the edge form, or the bare '}' terminator
// (spec.md §4.6).
func (g *Graph) parseStatement(tokens []Token) error {
	switch {
	case len(tokens) == 0:
		return nil

	case len(tokens) >= 2 && tokens[0].Kind == TokText && tokens[1].Kind == TokBracket && tokens[1].Bracket == Open:
		if len(tokens) < 3 || tokens[len(tokens)-1].Kind != TokBracket || tokens[len(tokens)-1].Bracket != Closed {
			return &ParseError{Message: fmt.Sprintf("unterminated attribute list for node %q", tokens[0].Text)}
		}
		return g.parseNodeAttributes(tokens[0].Text, tokens[2:len(tokens)-1])

	case len(tokens) == 3 && tokens[0].Kind == TokText && tokens[1].Kind == TokArrow && tokens[2].Kind == TokText:
		src := g.GetOrCreateNode(tokens[0].Text)
		dst := g.GetOrCreateNode(tokens[2].Text)
		g.AddEdge(src, dst)
		return nil

	case len(tokens) == 1 && tokens[0].Kind == TokBrace && tokens[0].Bracket == Closed:
		return nil

	default:
		return &ParseError{Message: fmt.Sprintf("unexpected token sequence: %v", renderTokens(tokens))}
	}
}

// parseNodeAttributes parses `KEY = VALUE (, KEY = VALUE)*` (commas
// optional, matching the bracket-list form in spec.md §4.6) and
// applies it to node nodeName.
func (g *Graph) parseNodeAttributes(nodeName string, attrTokens []Token) error {
	nodeIdx := g.GetOrCreateNode(nodeName)
	attrs := make(map[Key]string)

	i := 0
	for i < len(attrTokens) {
		if attrTokens[i].Kind == TokComma {
			i++
			continue
		}
		keyTok := attrTokens[i]
		if keyTok.Kind != TokReservedText {
			return &ParseError{Message: fmt.Sprintf("expected reserved key in attribute list, got %q", keyTok.String())}
		}
		if i+1 >= len(attrTokens) || attrTokens[i+1].Kind != TokEquals {
			return &ParseError{Message: fmt.Sprintf("expected '=' after key %q", keyTok.String())}
		}
		if i+2 >= len(attrTokens) || attrTokens[i+2].Kind != TokText {
			return &ParseError{Message: fmt.Sprintf("expected text value after '%s ='", keyTok.String())}
		}
		attrs[keyTok.Key] = attrTokens[i+2].Text
		i += 3
	}

	g.SetAttributes(nodeIdx, attrs)
	return nil
}

func renderTokens(tokens []Token) string {
	s := ""
	for i, t := range tokens {
		if i > 0 {
			s += " "
		}
		s += t.String()
	}
	return s
}
