package tags

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/overlay"
	"github.com/walteh/tagoverlay/pkg/position"
)

type Handler struct {
	configPath func() string
	start      int
	end        int
	out        io.Writer
}

func NewTagsCommand(configPath func() string) *cobra.Command {
	me := &Handler{configPath: configPath}

	cmd := &cobra.Command{
		Use:   "tags <file>",
		Short: "print the highlight tags of a C# or markdown file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().IntVar(&me.start, "start", 0, "first byte offset to tag")
	cmd.Flags().IntVar(&me.end, "end", -1, "byte offset to stop tagging at, -1 for the end of the file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), afero.NewOsFs(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, fs afero.Fs, path string) error {
	env, err := overlay.NewEnvironment(ctx, fs, me.configPath())
	if err != nil {
		return err
	}

	s, err := env.Open(ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()

	text := s.Snapshot().Text
	end := me.end
	if end < 0 {
		end = len(text)
	}
	if me.start < 0 || me.start > end || end > len(text) {
		return errors.Errorf("range %d:%d is outside %s (%d bytes)", me.start, end, path, len(text))
	}

	for _, ts := range s.Tags(ctx, position.Span{Start: me.start, End: end}) {
		if _, err := fmt.Fprintln(me.out, overlay.Format(text, ts)); err != nil {
			return errors.Errorf("writing tags: %w", err)
		}
	}
	return nil
}
