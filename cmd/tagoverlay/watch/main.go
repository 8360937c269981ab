package watch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/pkg/overlay"
	"github.com/walteh/tagoverlay/pkg/position"
	filewatch "github.com/walteh/tagoverlay/pkg/watch"
)

type Handler struct {
	configPath func() string
	debounce   time.Duration
	out        io.Writer
}

func NewWatchCommand(configPath func() string) *cobra.Command {
	me := &Handler{configPath: configPath}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "retag the lines of a file that change on every save",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().DurationVar(&me.debounce, "debounce", filewatch.DefaultDebounce, "quiet time after a write before retagging")

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

	s.OnRepaint(func() {
		zerolog.Ctx(ctx).Debug().Str("file", path).Msg("repaint requested")
	})

	if err := me.print(ctx, s, position.Span{Start: 0, End: len(s.Snapshot().Text)}); err != nil {
		return err
	}

	w, err := filewatch.New(path, me.debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	changes, err := w.Start(ctx)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Str("file", path).Msg("watching")

	for range changes {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("file", path).Msg("reading changed file")
			continue
		}
		text := string(data)
		if text == s.Snapshot().Text {
			continue
		}
		changed, err := s.Update(ctx, text)
		if err != nil {
			return err
		}
		if err := me.print(ctx, s, changed); err != nil {
			return err
		}
	}
	return nil
}

func (me *Handler) print(ctx context.Context, s *overlay.Session, span position.Span) error {
	text := s.Snapshot().Text
	r := span.GetRange(text)
	if _, err := fmt.Fprintf(me.out, "-- %s %s\n", s.Path(), r); err != nil {
		return errors.Errorf("writing tags: %w", err)
	}
	for _, ts := range s.Tags(ctx, span) {
		if _, err := fmt.Fprintln(me.out, overlay.Format(text, ts)); err != nil {
			return errors.Errorf("writing tags: %w", err)
		}
	}
	return nil
}
