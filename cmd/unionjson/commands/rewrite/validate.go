package rewrite

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/unionjson/unionjson/cmd/unionjson/commands/cmdutil"
	rewritePkg "github.com/unionjson/unionjson/rewrite"
	"github.com/unionjson/unionjson/validation"
)

var validateRulesFlag string

var validateCmd = &cobra.Command{
	Use:   "validate [<rules>]",
	Short: "Given a rule file, it will state whether it appears to be valid or describe the problems found",
	Args:  cobra.RangeArgs(0, 1),
	Run:   RunValidate,
	Example: `  # Validate a rule file using a positional argument
  unionjson rewrite validate rules.yaml

  # Validate a rule file using the flag
  unionjson rewrite validate --rules rules.yaml`,
}

func init() {
	validateCmd.Flags().StringVar(&validateRulesFlag, "rules", "", "Path to the rewrite rule file")
}

func RunValidate(cmd *cobra.Command, args []string) {
	rulesFile := validateRulesFlag
	if rulesFile == "" {
		rulesFile = cmdutil.ArgAt(args, 0, "")
	}
	if rulesFile == "" {
		cmdutil.Dief("rule file is required (use --rules flag or provide as first argument)")
	}

	data, err := os.ReadFile(rulesFile) //nolint:gosec
	if err != nil {
		cmdutil.Die(err)
	}

	// Schema validation first, it pins problems to lines and columns
	if errs := rewritePkg.ValidateDocument(cmd.Context(), data); len(errs) > 0 {
		validation.SortValidationErrors(errs)
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		cmdutil.Dief("Rule file %q failed validation:\n%s", rulesFile, strings.Join(msgs, "\n"))
	}

	r, err := rewritePkg.ParseBytes(data)
	if err != nil {
		cmdutil.Die(err)
	}

	if err := r.Validate(); err != nil {
		cmdutil.Dief("Rule file %q failed validation:\n%v", rulesFile, err)
	}

	fmt.Fprintf(os.Stderr, "Rule file %q is valid.\n", rulesFile)
}
