package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapdml/internal/cli/output"
	"github.com/leapstack-labs/leapdml/pkg/core"
	"github.com/spf13/cobra"
)

// RefInfo is one branch or tag in command output.
type RefInfo struct {
	Name      string    `json:"name" yaml:"name"`
	Type      string    `json:"type" yaml:"type"`
	Commit    string    `json:"commit" yaml:"commit"`
	Version   *int64    `json:"version,omitempty" yaml:"version,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

func refInfo(ref core.Reference) RefInfo {
	return RefInfo{
		Name:      ref.Name,
		Type:      string(ref.Type),
		Commit:    ref.CommitHash,
		Version:   ref.Version,
		UpdatedAt: ref.UpdatedAt,
	}
}

// NewBranchCommand creates the branch command group.
func NewBranchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Manage branches and tags of versioned sources",
	}
	cmd.AddCommand(newBranchListCommand())
	cmd.AddCommand(newBranchCreateCommand(core.VersionBranch))
	cmd.AddCommand(newBranchCreateCommand(core.VersionTag))
	return cmd
}

func newBranchListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list <source>",
		Short:   "List the branches and tags of a source",
		Example: `  leapdml branch list lake`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			name := args[0]
			src, ok := cctx.Catalog.Source(name)
			if !ok || !src.SupportsVersioning() {
				return fmt.Errorf("source %s is not a configured versioned source", name)
			}

			refs, err := cctx.Store.ListRefs(cmd.Context(), src.Name())
			if err != nil {
				return err
			}

			infos := make([]RefInfo, 0, len(refs))
			for _, ref := range refs {
				infos = append(infos, refInfo(ref))
			}

			r := cctx.Renderer
			if r.EffectiveMode() != output.ModeText {
				return r.Data(infos)
			}

			rows := make([][]string, 0, len(infos))
			for _, ref := range infos {
				version := "-"
				if ref.Version != nil {
					version = strconv.FormatInt(*ref.Version, 10)
				}
				rows = append(rows, []string{ref.Name, ref.Type, shortHash(ref.Commit), version, ref.UpdatedAt.Format(time.RFC3339)})
			}
			r.Header(fmt.Sprintf("References of %s", src.Name()))
			r.Table([]string{"NAME", "TYPE", "COMMIT", "VERSION", "UPDATED"}, rows)
			return nil
		},
	}
}

func newBranchCreateCommand(typ core.VersionType) *cobra.Command {
	var from string

	use, short := "create <source> <name>", "Create a branch"
	if typ == core.VersionTag {
		use, short = "tag <source> <name>", "Create a tag"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + ` at the commit --from resolves to. Without --from the head
of the source's default branch is used.`,
		Example: `  leapdml branch create lake dev
  leapdml branch tag lake v1 --from branch:dev`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			src, ok := cctx.Catalog.Source(args[0])
			if !ok {
				return fmt.Errorf("source %s is not configured", args[0])
			}
			sourceName, refName := src.Name(), args[1]

			vc, err := core.ParseVersionContext(from)
			if err != nil {
				return err
			}
			at, err := cctx.Catalog.ResolveVersion(ctx, sourceName, vc)
			if err != nil {
				return err
			}

			create := cctx.Store.CreateBranch
			if typ == core.VersionTag {
				create = cctx.Store.CreateTag
			}
			ref, err := create(ctx, sourceName, refName, at.CommitHash)
			if err != nil {
				return err
			}

			r := cctx.Renderer
			if r.EffectiveMode() != output.ModeText {
				return r.Data(refInfo(*ref))
			}
			r.Success(fmt.Sprintf("Created %s %s at %s", typ, ref.Name, shortHash(ref.CommitHash)))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Reference to start from (branch:name, tag:name or commit:hash)")
	return cmd
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
