package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe <grammar.json>",
		Short:   "Print a compiled grammar's rules and terminals",
		Example: `  kbnfc describe grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	g, err := readGrammar(args[0])
	if err != nil {
		return fmt.Errorf("cannot read grammar: %w", err)
	}

	fmt.Fprintf(os.Stdout, "nonterminals: %d, start: %d\n", g.NumNonterminals(), g.Start())
	for id := 0; id < g.NumNonterminals(); id++ {
		rule := g.Rule(symbol.NonterminalID(id))
		nullable := ""
		if g.IsNullable(symbol.NonterminalID(id)) {
			nullable = " (nullable)"
		}
		fmt.Fprintf(os.Stdout, "%s%s:\n", rule.Name, nullable)
		for _, alt := range rule.Alternatives {
			fmt.Fprintf(os.Stdout, "  ")
			if len(alt) == 0 {
				fmt.Fprintf(os.Stdout, "<empty>")
			}
			for i, sym := range alt {
				if i > 0 {
					fmt.Fprintf(os.Stdout, " ")
				}
				fmt.Fprintf(os.Stdout, "%s", describeSymbol(g, sym))
			}
			fmt.Fprintln(os.Stdout)
		}
	}
	return nil
}

func describeSymbol(g *grammar.Grammar, sym symbol.Symbol) string {
	if sym.Kind == symbol.KindNonterminal {
		return g.Rule(sym.Nonterminal).Name
	}
	return sym.String()
}
