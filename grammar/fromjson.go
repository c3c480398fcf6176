package grammar

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/Dan-wanna-M/kbnf/symbol"
)

// jsonGrammar is the on-disk IR a [GrammarBuilder] is populated from. A
// textual BNF-like grammar language is out of scope for this module (see
// the PURPOSE & SCOPE non-goals); callers that have one compile it down
// to this JSON shape themselves, the same division of labor the teacher's
// own compile/parse commands draw between the grammar compiler and the
// driver that consumes its output.
type jsonGrammar struct {
	Start string                  `json:"start"`
	Rules map[string][]jsonAlt    `json:"rules"`
}

type jsonAlt []jsonSymbol

type jsonSymbol struct {
	Type string `json:"type"` // "terminal" | "regex" | "nonterminal" | "except" | "repeat"

	// terminal / regex
	Value string `json:"value,omitempty"`
	// nonterminal
	Name string `json:"name,omitempty"`
	// except / repeat
	Of       *jsonSymbol `json:"of,omitempty"`
	Excluded []string    `json:"excluded,omitempty"`
	Lo       uint32      `json:"lo,omitempty"`
	Hi       uint32      `json:"hi,omitempty"`
}

// LoadJSON builds a Grammar from the JSON IR read from r.
func LoadJSON(r io.Reader) (*Grammar, error) {
	var jg jsonGrammar
	if err := json.NewDecoder(r).Decode(&jg); err != nil {
		return nil, fmt.Errorf("grammar: decoding JSON: %w", err)
	}
	if jg.Start == "" {
		return nil, fmt.Errorf("grammar: JSON grammar has no \"start\" nonterminal")
	}

	b := NewBuilder()
	b.SetStart(jg.Start)

	names := make([]string, 0, len(jg.Rules))
	for name := range jg.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		id := b.Nonterminal(name)
		for _, alt := range jg.Rules[name] {
			seq := make([]symbol.Symbol, len(alt))
			for i, js := range alt {
				sym, err := convertJSONSymbol(b, js)
				if err != nil {
					return nil, fmt.Errorf("grammar: rule %q: %w", name, err)
				}
				seq[i] = sym
			}
			b.AddAlternative(id, seq...)
		}
	}

	return b.Build()
}

// convertJSONSymbol resolves one JSON symbol node into a symbol.Symbol,
// compiling regex/except/repeat nodes against the builder as it goes so
// forward references to not-yet-declared nonterminals still intern
// correctly (Nonterminal is idempotent).
func convertJSONSymbol(b *GrammarBuilder, js jsonSymbol) (symbol.Symbol, error) {
	switch js.Type {
	case "terminal":
		return b.Terminal(js.Value), nil
	case "regex":
		return b.Regex(js.Value)
	case "nonterminal":
		if js.Name == "" {
			return symbol.Symbol{}, fmt.Errorf("nonterminal symbol missing \"name\"")
		}
		return symbol.N(b.Nonterminal(js.Name)), nil
	case "except":
		if js.Of == nil {
			return symbol.Symbol{}, fmt.Errorf("except symbol missing \"of\"")
		}
		of, err := convertJSONSymbol(b, *js.Of)
		if err != nil {
			return symbol.Symbol{}, err
		}
		return b.Except(of, js.Excluded...)
	case "repeat":
		if js.Of == nil {
			return symbol.Symbol{}, fmt.Errorf("repeat symbol missing \"of\"")
		}
		of, err := convertJSONSymbol(b, *js.Of)
		if err != nil {
			return symbol.Symbol{}, err
		}
		return b.Repeat(of, js.Lo, js.Hi)
	default:
		return symbol.Symbol{}, fmt.Errorf("unknown symbol type %q", js.Type)
	}
}
