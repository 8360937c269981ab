package relocate

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/overlay"
)

type Handler struct {
	configPath func() string
	offset     int
	workspace  bool
	out        io.Writer
}

func NewRelocateCommand(configPath func() string) *cobra.Command {
	me := &Handler{configPath: configPath}

	cmd := &cobra.Command{
		Use:   "relocate <file> <edited-file>",
		Short: "find where the declaration at an offset of file moved to in an edited copy",
		Args:  cobra.ExactArgs(2),
	}

	cmd.Flags().IntVar(&me.offset, "offset", 0, "byte offset inside the declaration to follow")
	cmd.Flags().BoolVar(&me.workspace, "workspace", false, "load the other C# files next to file so symbols can resolve across them")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), afero.NewOsFs(), args[0], args[1])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, fs afero.Fs, path, editedPath string) error {
	env, err := overlay.NewEnvironment(ctx, fs, me.configPath())
	if err != nil {
		return err
	}
	if me.workspace {
		env.LoadSiblings(ctx, path)
	}

	s, err := env.Open(ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()

	node, sym, err := s.Hold(ctx, me.offset)
	if err != nil {
		return err
	}
	before := overlay.Describe(node)

	edited, err := afero.ReadFile(fs, editedPath)
	if err != nil {
		return errors.Errorf("reading %s: %w", editedPath, err)
	}
	changed, err := s.Update(ctx, string(edited))
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Stringer("changed", changed).Msg("applied edit")

	moved, ok := s.Tracker().Relocate(ctx, node)
	if !ok {
		_, err := fmt.Fprintf(me.out, "%s -> deleted\n", before)
		return err
	}
	if _, err := fmt.Fprintf(me.out, "%s -> %s\n", before, overlay.Describe(moved)); err != nil {
		return errors.Errorf("writing result: %w", err)
	}

	if sym != nil {
		relocated := s.Tracker().RelocateSymbol(ctx, sym)
		if _, err := fmt.Fprintf(me.out, "symbol %s -> %s\n", sym.Key(), relocated.Key()); err != nil {
			return errors.Errorf("writing result: %w", err)
		}
	}
	return nil
}
