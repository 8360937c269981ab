package config

import (
	"bytes"
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/tagoverlay/pkg/labels"
	"github.com/walteh/tagoverlay/pkg/style"
)

// File is the on-disk configuration, in HCL or YAML.
//
//	mark_declarations = true
//	label "TODO" {
//	  style = "todo"
//	  apply = "content"
//	  allow_punctuation = true
//	}
type File struct {
	MarkDeclarations *bool `json:"mark_declarations,omitempty" hcl:"mark_declarations,optional" yaml:"mark_declarations,omitempty"`
	MarkDirectives   *bool `json:"mark_directives,omitempty" hcl:"mark_directives,optional" yaml:"mark_directives,omitempty"`
	MarkAbstractions *bool `json:"mark_abstractions,omitempty" hcl:"mark_abstractions,optional" yaml:"mark_abstractions,omitempty"`
	MarkComments     *bool `json:"mark_comments,omitempty" hcl:"mark_comments,optional" yaml:"mark_comments,omitempty"`

	Labels []*LabelBlock `json:"labels,omitempty" hcl:"label,block" yaml:"labels,omitempty"`
}

// LabelBlock is one comment label rule as written in the config file.
type LabelBlock struct {
	Text             string `json:"text" hcl:"text,label" yaml:"text"`
	Style            string `json:"style" hcl:"style,attr" yaml:"style"`
	Apply            string `json:"apply,omitempty" hcl:"apply,optional" yaml:"apply,omitempty"`
	IgnoreCase       bool   `json:"ignore_case,omitempty" hcl:"ignore_case,optional" yaml:"ignore_case,omitempty"`
	AllowPunctuation bool   `json:"allow_punctuation,omitempty" hcl:"allow_punctuation,optional" yaml:"allow_punctuation,omitempty"`
}

// Settings is the read-only snapshot taggers consume.
type Settings struct {
	MarkDeclarations bool
	MarkDirectives   bool
	MarkAbstractions bool
	MarkComments     bool

	// Labels are tried in order; the first match wins.
	Labels []labels.Rule
}

// Default returns the settings used when no configuration file is given.
func Default() *Settings {
	return &Settings{
		MarkDeclarations: true,
		MarkDirectives:   true,
		MarkAbstractions: true,
		MarkComments:     true,
		Labels: []labels.Rule{
			{Label: "!!", Style: style.Emphasis, Application: labels.ContentOnly},
			{Label: "!?", Style: style.Exclamation, Application: labels.ContentOnly},
			{Label: "!", Style: style.Exclamation, Application: labels.ContentOnly},
			{Label: "?", Style: style.Question, Application: labels.ContentOnly},
			{Label: "TODO", IgnoreCase: true, Style: style.ToDo, Application: labels.WholeSpan, AllowPunctuationDelimiter: true},
			{Label: "NOTE", IgnoreCase: true, Style: style.Note, Application: labels.WholeSpan, AllowPunctuationDelimiter: true},
			{Label: "HACK", IgnoreCase: true, Style: style.Hack, Application: labels.WholeSpan, AllowPunctuationDelimiter: true},
			{Label: "UNDONE", IgnoreCase: true, Style: style.Undone, Application: labels.WholeSpan, AllowPunctuationDelimiter: true},
			{Label: "+++", Style: style.Heading1, Application: labels.ContentOnly},
			{Label: "++", Style: style.Heading2, Application: labels.ContentOnly},
			{Label: "+", Style: style.Heading3, Application: labels.ContentOnly},
			{Label: "1", Style: style.Task1, Application: labels.ContentOnly, AllowPunctuationDelimiter: true},
			{Label: "2", Style: style.Task2, Application: labels.ContentOnly, AllowPunctuationDelimiter: true},
			{Label: "3", Style: style.Task3, Application: labels.ContentOnly, AllowPunctuationDelimiter: true},
		},
	}
}

// Load reads a configuration file. YAML is chosen by extension, anything else is parsed as HCL.
// An empty path returns the defaults.
func Load(ctx context.Context, fs afero.Fs, path string) (*Settings, error) {
	if path == "" {
		zerolog.Ctx(ctx).Debug().Msg("no config file given, using defaults")
		return Default(), nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	file, err := Parse(path, data)
	if err != nil {
		return nil, err
	}

	settings, err := file.Settings()
	if err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("labels", len(settings.Labels)).Msg("loaded config")

	return settings, nil
}

// Parse decodes config data; the file name selects YAML or HCL.
func Parse(path string, data []byte) (*File, error) {
	var cfg File

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
		return &cfg, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &cfg, nil
}

// Settings validates the file and resolves it over the defaults. Every invalid
// label is reported, not just the first.
func (f *File) Settings() (*Settings, error) {
	settings := Default()

	override(&settings.MarkDeclarations, f.MarkDeclarations)
	override(&settings.MarkDirectives, f.MarkDirectives)
	override(&settings.MarkAbstractions, f.MarkAbstractions)
	override(&settings.MarkComments, f.MarkComments)

	if len(f.Labels) == 0 {
		return settings, nil
	}

	var result *multierror.Error
	rules := make([]labels.Rule, 0, len(f.Labels))
	for i, block := range f.Labels {
		rule, err := block.rule()
		if err != nil {
			result = multierror.Append(result, errors.Errorf("label %d (%q): %w", i, block.Text, err))
			continue
		}
		rules = append(rules, rule)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	settings.Labels = rules
	return settings, nil
}

func (b *LabelBlock) rule() (labels.Rule, error) {
	if strings.TrimSpace(b.Text) == "" {
		return labels.Rule{}, errors.New("label text is empty")
	}
	if strings.TrimSpace(b.Text) != b.Text {
		return labels.Rule{}, errors.New("label text has surrounding whitespace")
	}

	id, err := style.ParseID(b.Style)
	if err != nil {
		return labels.Rule{}, err
	}

	app, err := parseApplication(b.Apply)
	if err != nil {
		return labels.Rule{}, err
	}

	return labels.Rule{
		Label:                     b.Text,
		IgnoreCase:                b.IgnoreCase,
		Style:                     id,
		Application:               app,
		AllowPunctuationDelimiter: b.AllowPunctuation,
	}, nil
}

func parseApplication(s string) (labels.Application, error) {
	switch strings.ToLower(s) {
	case "", "whole", "wholespan":
		return labels.WholeSpan, nil
	case "tag", "tagonly":
		return labels.TagOnly, nil
	case "content", "contentonly":
		return labels.ContentOnly, nil
	default:
		return 0, errors.Errorf("unknown apply mode %q", s)
	}
}

func override(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Clone returns a copy whose label table can be changed independently.
func (s *Settings) Clone() *Settings {
	c := *s
	c.Labels = append([]labels.Rule(nil), s.Labels...)
	return &c
}
