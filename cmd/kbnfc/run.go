package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dan-wanna-M/kbnf/engine"
	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/vocabulary"
)

var runFlags = struct {
	tokens *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "run <grammar.json> <vocab.json>",
		Short:   "Replay a token sequence against a grammar and vocabulary",
		Example: `  kbnfc run grammar.json vocab.json --tokens 0,5,2`,
		Args:    cobra.ExactArgs(2),
		RunE:    runRun,
	}
	runFlags.tokens = cmd.Flags().StringP("tokens", "t", "", "comma-separated token ids to commit in order")
	rootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	g, err := readGrammar(args[0])
	if err != nil {
		return fmt.Errorf("cannot read grammar: %w", err)
	}
	vocab, err := readVocabulary(args[1])
	if err != nil {
		return fmt.Errorf("cannot read vocabulary: %w", err)
	}

	e, err := engine.New(g, vocab, engine.Config{})
	if err != nil {
		return fmt.Errorf("cannot build engine: %w", err)
	}

	ids, err := parseTokenIDs(*runFlags.tokens)
	if err != nil {
		return err
	}

	printMask(e, vocab)
	for _, id := range ids {
		result, err := e.CommitToken(id)
		if err != nil {
			return fmt.Errorf("committing token %d: %w", id, err)
		}
		b, _ := vocab.Token(id)
		fmt.Fprintf(os.Stdout, "committed %d (%q) -> %v\n", id, b, result)
		if result == engine.Finished {
			break
		}
		printMask(e, vocab)
	}

	return nil
}

func printMask(e *engine.Engine, vocab *vocabulary.Vocabulary) {
	mask, err := e.ComputeAllowedMask()
	if err != nil {
		fmt.Fprintf(os.Stderr, "computing mask: %v\n", err)
		return
	}
	var ids []string
	for id := 0; id < vocab.Size(); id++ {
		if mask.Test(uint32(id)) {
			ids = append(ids, strconv.Itoa(id))
		}
	}
	fmt.Fprintf(os.Stdout, "allowed: [%s]\n", strings.Join(ids, ","))
}

func parseTokenIDs(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]uint32, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", p, err)
		}
		ids[i] = uint32(n)
	}
	return ids, nil
}

func readGrammar(path string) (*grammar.Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return grammar.LoadJSON(f)
}

func readVocabulary(path string) (*vocabulary.Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vocabulary.LoadJSON(f)
}
