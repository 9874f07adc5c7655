package dsl_test

import (
	"strings"
	"testing"

	"github.com/nuulab/flowengine/internal/dsl"
)

func TestParse_LinearGraph(t *testing.T) {
	src := `digraph { a -> b ; b -> c ; }`
	g, err := dsl.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges, want 3, 2", len(g.Nodes), len(g.Edges))
	}
	roots := g.Roots()
	aIdx, _ := g.NodeByName("a")
	if len(roots) != 1 || roots[0] != aIdx {
		t.Fatalf("Roots() = %v, want [%d]", roots, aIdx)
	}
}

func TestParse_NamedGraph(t *testing.T) {
	g, err := dsl.Parse(`digraph MyGraph { a -> b ; }`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !g.HasName || g.Name != "MyGraph" {
		t.Fatalf("g = %+v, want HasName=true Name=MyGraph", g)
	}
}

func TestParse_NodeAttributes(t *testing.T) {
	src := `digraph { make [ data = "{\"target\":\"all\"}" ] ; make -> parse ; parse [ shape = "box" ] ; }`
	g, err := dsl.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	makeIdx, ok := g.NodeByName("make")
	if !ok {
		t.Fatalf("missing node 'make'")
	}
	if got := g.Nodes[makeIdx].Attributes[dsl.KeyData]; got != `{"target":"all"}` {
		t.Fatalf("data attribute = %q, want unescaped JSON", got)
	}

	parseIdx, ok := g.NodeByName("parse")
	if !ok {
		t.Fatalf("missing node 'parse'")
	}
	if got := g.Nodes[parseIdx].Attributes[dsl.KeyShape]; got != "box" {
		t.Fatalf("shape attribute = %q, want box", got)
	}
}

func TestParse_StatusDispatchExample(t *testing.T) {
	src := `
digraph G {
  make [ data = "{}" ] ;
  parse [ data = "{}" ] ;
  make -> parse ;
  parse -> done ;
  parse -> err ;
}`
	g, err := dsl.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	parseIdx, _ := g.NodeByName("parse")
	out := g.OutgoingSorted(parseIdx)
	if len(out) != 2 {
		t.Fatalf("outgoing edges from 'parse' = %d, want 2", len(out))
	}
	doneIdx, _ := g.NodeByName("done")
	errIdx, _ := g.NodeByName("err")
	if out[0].Dst != doneIdx || out[1].Dst != errIdx {
		t.Fatalf("edges = %+v, want [done, err] in declaration order", out)
	}
}

func TestParse_MalformedAttributeTripletFails(t *testing.T) {
	_, err := dsl.Parse(`digraph { a [ shape = ] ; }`)
	if err == nil {
		t.Fatalf("Parse() error = nil, want a parse error")
	}
	var pe *dsl.ParseError
	if !strings.Contains(err.Error(), "dsl: parse error:") {
		t.Fatalf("err = %v (%T), want *dsl.ParseError", err, pe)
	}
}

func TestParse_MissingDigraphKeywordFails(t *testing.T) {
	_, err := dsl.Parse(`{ a -> b ; }`)
	if err == nil {
		t.Fatalf("Parse() error = nil, want failure")
	}
}

func TestParse_UnterminatedBodyFails(t *testing.T) {
	_, err := dsl.Parse(`digraph { a -> b ;`)
	if err == nil {
		t.Fatalf("Parse() error = nil, want failure")
	}
}

func TestParse_DeterministicForSameInput(t *testing.T) {
	src := `digraph { a -> b ; a -> c ; b -> c ; }`
	g1, err1 := dsl.Parse(src)
	g2, err2 := dsl.Parse(src)
	if err1 != nil || err2 != nil {
		t.Fatalf("Parse() errors = %v, %v", err1, err2)
	}
	if len(g1.Nodes) != len(g2.Nodes) || len(g1.Edges) != len(g2.Edges) {
		t.Fatalf("non-deterministic parse: %+v vs %+v", g1, g2)
	}
	for i := range g1.Nodes {
		if g1.Nodes[i].Name != g2.Nodes[i].Name {
			t.Fatalf("node order differs at %d: %q vs %q", i, g1.Nodes[i].Name, g2.Nodes[i].Name)
		}
	}
}
