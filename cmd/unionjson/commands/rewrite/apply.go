package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/unionjson/unionjson/cmd/unionjson/commands/cmdutil"
	"github.com/unionjson/unionjson/mapper"
	rewritePkg "github.com/unionjson/unionjson/rewrite"
	"github.com/unionjson/unionjson/yml"
	"golang.org/x/sync/errgroup"
)

var (
	rulesFlag  string
	outFlag    string
	strictFlag bool
)

var flattenCmd = &cobra.Command{
	Use:   "flatten [<doc>...]",
	Short: "Unwrap the type envelopes held by union fields back to the flattened wire shape",
	Args:  cmdutil.StdinOrFileArgs(1, -1),
	Run: func(cmd *cobra.Command, args []string) {
		runRewrite(cmd, args, rewritePkg.DirectionFlatten)
	},
	Example: `  # Flatten a document to stdout
  unionjson rewrite flatten --rules rules.yaml enveloped.json

  # Flatten several documents into a directory
  unionjson rewrite flatten --rules rules.yaml a.json b.json --out flattened/

  # Pipe a document via stdin
  cat enveloped.json | unionjson rewrite flatten --rules rules.yaml`,
}

var wrapCmd = &cobra.Command{
	Use:   "wrap [<doc>...]",
	Short: "Replace the flattened content of union fields with type envelopes",
	Args:  cmdutil.StdinOrFileArgs(1, -1),
	Run: func(cmd *cobra.Command, args []string) {
		runRewrite(cmd, args, rewritePkg.DirectionWrap)
	},
	Example: `  # Wrap a document to stdout
  unionjson rewrite wrap --rules rules.yaml doc.yaml

  # Wrap several documents into a directory, erroring on rules that select nothing
  unionjson rewrite wrap --rules rules.yaml a.json b.json --out wrapped/ --strict

  # Pipe a document via stdin
  cat doc.json | unionjson rewrite wrap --rules rules.yaml`,
}

func init() {
	for _, cmd := range []*cobra.Command{flattenCmd, wrapCmd} {
		cmd.Flags().StringVar(&rulesFlag, "rules", "", "Path to the rewrite rule file")
		cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file for a single document or directory for several (defaults to stdout)")
		cmd.Flags().BoolVar(&strictFlag, "strict", false, "Error when a rule selects no objects instead of skipping it")
	}
}

type input struct {
	name string
	data []byte
}

func runRewrite(cmd *cobra.Command, args []string, direction rewritePkg.Direction) {
	if rulesFlag == "" {
		cmdutil.Dief("rule file is required (use --rules)")
	}

	r, err := rewritePkg.Parse(rulesFlag)
	if err != nil {
		cmdutil.Die(err)
	}

	if err := r.Validate(); err != nil {
		cmdutil.Dief("Rule file %q failed validation:\n%v", rulesFlag, err)
	}

	inputs, err := readInputs(args)
	if err != nil {
		cmdutil.Die(err)
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	results := make([][]byte, len(inputs))

	for i, in := range inputs {
		g.Go(func() error {
			out, err := rewriteDocument(ctx, r, in.data, direction)
			if err != nil {
				return fmt.Errorf("failed to rewrite %q: %w", in.name, err)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		cmdutil.Die(err)
	}

	writeResults(inputs, results)
}

func readInputs(args []string) ([]input, error) {
	if len(args) == 0 {
		args = []string{cmdutil.StdinIndicator}
	}

	inputs := make([]input, 0, len(args))
	for _, arg := range args {
		if cmdutil.IsStdin(arg) {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			inputs = append(inputs, input{name: "stdin", data: data})
			continue
		}

		data, err := os.ReadFile(arg) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("failed to read document at path %q: %w", arg, err)
		}
		inputs = append(inputs, input{name: arg, data: data})
	}

	return inputs, nil
}

// rewriteDocument applies the rules to one document, rendering it back in its
// source format.
func rewriteDocument(ctx context.Context, r *rewritePkg.Rewrite, data []byte, direction rewritePkg.Direction) ([]byte, error) {
	doc, cfg, err := mapper.ParseDocument(ctx, data)
	if err != nil {
		return nil, err
	}

	ctx = yml.ContextWithConfig(ctx, cfg)

	if strictFlag {
		err = r.ApplyToStrict(ctx, doc, direction)
	} else {
		err = r.ApplyTo(ctx, doc, direction)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := mapper.MarshalNode(ctx, doc, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeResults(inputs []input, results [][]byte) {
	if len(results) == 1 {
		out := os.Stdout
		if outFlag != "" {
			f, err := os.Create(outFlag)
			if err != nil {
				cmdutil.Dief("Failed to create output file %q: %v", outFlag, err)
			}
			defer f.Close()
			out = f
		}

		if _, err := out.Write(results[0]); err != nil {
			cmdutil.Dief("Failed to write output: %v", err)
		}
		return
	}

	// Several documents need a directory to land in
	if outFlag == "" {
		cmdutil.Dief("--out directory is required when rewriting several documents")
	}
	if err := os.MkdirAll(outFlag, 0o755); err != nil {
		cmdutil.Dief("Failed to create output directory %q: %v", outFlag, err)
	}

	seen := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		name := filepath.Base(in.name)
		if seen[name] {
			cmdutil.Dief("several input documents are named %q, rename one", name)
		}
		seen[name] = true

		path := filepath.Join(outFlag, name)
		if err := os.WriteFile(path, results[i], 0o600); err != nil {
			cmdutil.Dief("Failed to write output file %q: %v", path, err)
		}
	}
}
