package overlay

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/walteh/tagoverlay/pkg/config"
	"github.com/walteh/tagoverlay/pkg/host/csharp"
	"github.com/walteh/tagoverlay/pkg/style"
)

// Environment holds what sessions opened from one command share.
type Environment struct {
	Fs        afero.Fs
	Workspace *csharp.Workspace
	Settings  *config.Settings
	Styles    *style.Registry
}

// NewEnvironment loads settings from configPath, or the defaults when it is empty.
func NewEnvironment(ctx context.Context, fs afero.Fs, configPath string) (*Environment, error) {
	settings, err := config.Load(ctx, fs, configPath)
	if err != nil {
		return nil, err
	}
	return &Environment{
		Fs:        fs,
		Workspace: csharp.NewWorkspace(fs),
		Settings:  settings,
		Styles:    style.NewRegistry(),
	}, nil
}

// LoadSiblings adds the C# files under the directory of path to the
// workspace. Files that fail to load are logged and skipped.
func (e *Environment) LoadSiblings(ctx context.Context, path string) {
	dir := filepath.Dir(path)
	docs, err := e.Workspace.Load(ctx, dir, csharp.DefaultPattern)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("dir", dir).Msg("some workspace files failed to load")
	}
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Int("documents", len(docs)).Msg("loaded workspace")
}

func (e *Environment) Open(ctx context.Context, path string) (*Session, error) {
	return Open(ctx, e.Fs, e.Workspace, path, e.Settings, e.Styles)
}
