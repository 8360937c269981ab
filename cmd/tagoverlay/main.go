package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/tagoverlay/cmd/tagoverlay/relocate"
	"github.com/walteh/tagoverlay/cmd/tagoverlay/tags"
	"github.com/walteh/tagoverlay/cmd/tagoverlay/watch"
	logs "github.com/walteh/tagoverlay/pkg/debug"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	v := viper.New()
	v.SetEnvPrefix("TAGOVERLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "tagoverlay",
		Short:         "Highlight tags and declaration tracking for C# and markdown sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "HCL or YAML settings file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	for _, name := range []string{"config", "debug"} {
		if err := v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			return errors.Errorf("binding %s flag: %w", name, err)
		}
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if v.GetBool("debug") {
			level = zerolog.DebugLevel
		}
		tty := isatty.IsTerminal(os.Stderr.Fd())
		logger := logs.NewLogger(os.Stderr, logs.Options{
			Level:   level,
			Console: true,
			Color:   tty,
			Caller:  level == zerolog.DebugLevel,
		})
		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	cmdVersion := &cobra.Command{
		Use: "raw-version",
		Run: func(cmdz *cobra.Command, args []string) {
			cmdz.Println(rootCmd.Version)
		},
		Hidden: true,
	}

	rootCmd.AddCommand(cmdVersion)

	configPath := func() string { return v.GetString("config") }
	rootCmd.AddCommand(tags.NewTagsCommand(configPath))
	rootCmd.AddCommand(relocate.NewRelocateCommand(configPath))
	rootCmd.AddCommand(watch.NewWatchCommand(configPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}
	return nil
}
