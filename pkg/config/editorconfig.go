package config

import (
	"context"
	"strconv"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/rs/zerolog"
)

const (
	keyMarkDeclarations = "tagoverlay_mark_declarations"
	keyMarkDirectives   = "tagoverlay_mark_directives"
	keyMarkAbstractions = "tagoverlay_mark_abstractions"
	keyMarkComments     = "tagoverlay_mark_comments"
)

// ForFile applies the tagoverlay_mark_* properties of the .editorconfig files
// that govern path. The input settings are never modified. Unreadable or
// malformed editorconfig files leave the settings as they are.
func (s *Settings) ForFile(ctx context.Context, path string) *Settings {
	def, err := editorconfig.GetDefinitionForFilename(path)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("ignoring editorconfig")
		return s
	}
	return s.WithProperties(ctx, def.Raw)
}

// WithProperties applies editorconfig-style properties to a copy of the settings.
func (s *Settings) WithProperties(ctx context.Context, props map[string]string) *Settings {
	out := s.Clone()
	apply := func(key string, dst *bool) {
		raw, ok := props[key]
		if !ok {
			return
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Str("key", key).Str("value", raw).Msg("invalid editorconfig boolean")
			return
		}
		*dst = v
	}
	apply(keyMarkDeclarations, &out.MarkDeclarations)
	apply(keyMarkDirectives, &out.MarkDirectives)
	apply(keyMarkAbstractions, &out.MarkAbstractions)
	apply(keyMarkComments, &out.MarkComments)
	return out
}
