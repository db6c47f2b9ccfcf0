package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdml/internal/cli/output"
	"github.com/leapstack-labs/leapdml/internal/dml"
	"github.com/leapstack-labs/leapdml/internal/planerr"
	"github.com/leapstack-labs/leapdml/internal/planner"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var (
		file string
		refs []string
	)

	cmd := &cobra.Command{
		Use:   "plan [statement]",
		Short: "Admit a mutation statement and print its plan",
		Long: `Parse an INSERT or COPY INTO statement, run it through admission and
version resolution against the configured sources, and print the plan.

The statement is read from the argument, from --file, or from stdin when
the argument is "-".`,
		Example: `  # Plan an insert into a versioned table on the dev branch
  leapdml plan "INSERT INTO lake.sales (id, amount) VALUES (1, 9.5)" --ref lake=branch:dev

  # Plan a bulk load
  leapdml plan --bulk-load "COPY INTO rdbms.customers FROM 's3://b/c.csv' FILE_FORMAT = 'csv'"

  # Read the statement from a file and print JSON
  leapdml plan -f insert.sql -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readStatement(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			return runPlan(cmd, sql, refs)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the statement from a file")
	cmd.Flags().StringArrayVar(&refs, "ref", nil, "Version to write to, as source=branch:name|tag:name|commit:hash (repeatable)")
	cmd.Flags().Bool("bulk-load", false, "Enable COPY INTO statements")
	cmd.Flags().Bool("display-only", false, "Only display bulk-load results instead of writing them")

	return cmd
}

func runPlan(cmd *cobra.Command, sql string, refs []string) error {
	cctx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sess := cctx.Cfg.Session()
	if err := applyRefs(sess, refs); err != nil {
		return err
	}

	handler := dml.NewInsertHandler(cctx.Catalog, planner.New(cctx.Logger), cctx.Logger)
	plan, err := handler.PlanStatement(cmd.Context(), sess, sql)
	if err != nil {
		var pe *planerr.Error
		if errors.As(err, &pe) {
			cctx.Logger.Debug("planning failed", "category", string(pe.Category), "retryable", pe.Retryable())
		}
		return err
	}

	r := cctx.Renderer
	if r.EffectiveMode() != output.ModeText {
		return r.Data(plan)
	}
	renderPlanText(r, plan)
	return nil
}

// readStatement returns the statement from --file, stdin ("-") or the argument.
func readStatement(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass the statement either as an argument or with --file, not both")
	case file != "":
		data, err := os.ReadFile(file) //nolint:gosec // user-provided statement file
		if err != nil {
			return "", fmt.Errorf("failed to read statement file: %w", err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read statement from stdin: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("no statement given")
	}
}

// applyRefs parses source=version pairs into the session.
func applyRefs(sess *core.Session, refs []string) error {
	for _, ref := range refs {
		name, value, ok := strings.Cut(ref, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid --ref %q: expected source=version", ref)
		}
		vc, err := core.ParseVersionContext(value)
		if err != nil {
			return fmt.Errorf("invalid --ref %q: %w", ref, err)
		}
		sess.SetVersion(name, vc)
	}
	return nil
}

func renderPlanText(r *output.Renderer, plan *core.Plan) {
	r.Header("Plan " + plan.ID)
	r.KeyValue("Operator", plan.Operator)
	r.KeyValue("Target", plan.Target)
	if plan.PinnedVersion != nil {
		r.KeyValue("Version", plan.PinnedVersion.String())
	}
	r.Println("")

	depth := 0
	for node := plan.Root; node != nil; node = node.Input {
		r.Printf("%s%s%s\n", strings.Repeat("  ", depth), r.Styles().Info.Render(string(node.Type)), formatProperties(node.Properties))
		depth++
	}
}

func formatProperties(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+props[k])
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
