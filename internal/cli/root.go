// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// root.go - The oswc command line.
//
// Usage:
//
//	oswc [server] [-p port] [username [password]]
//
// A server on the command line becomes a "/connect" run before the prompt
// appears, a username becomes the "/login" that follows it.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/oswc/internal/commands"
	"github.com/jeranaias/oswc/internal/config"
	"github.com/jeranaias/oswc/internal/logging"
	"github.com/jeranaias/oswc/internal/render"
	"github.com/jeranaias/oswc/internal/session"
)

// Version is set at build time.
var Version = "dev"

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation is the parsed command line.
type Invocation struct {
	ConfigPath string
	Driver     string
	Verbose    bool

	Server   string
	Port     string
	Username string
	Password string
}

// Startup returns the commands to run before the first prompt, in order.
func (inv *Invocation) Startup() []string {
	if inv.Server == "" {
		return nil
	}

	connect := "/connect " + inv.Server
	if inv.Port != "" {
		connect += " " + inv.Port
	}
	lines := []string{connect}

	if inv.Username != "" {
		login := "/login " + inv.Username
		if inv.Password != "" {
			login += " " + inv.Password
		}
		lines = append(lines, login)
	}
	return lines
}

// validate rejects a malformed port before anything is opened.
func (inv *Invocation) validate() error {
	if inv.Port == "" {
		return nil
	}
	if inv.Server == "" {
		return NewValidationErrorWithExample("port", inv.Port,
			"a port needs a server", "oswc example.org -p 5222")
	}
	port, err := strconv.Atoi(inv.Port)
	if err != nil || port < 1 || port > 65535 {
		return NewValidationErrorWithExample("port", inv.Port,
			"must be a number between 1 and 65535", "oswc example.org -p 5222")
	}
	return nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// runFunc starts a session for a validated invocation.
type runFunc func(ctx context.Context, inv *Invocation) error

// NewRootCmd builds the oswc command. run is called once the command line
// is parsed and validated.
func NewRootCmd(run runFunc) *cobra.Command {
	inv := &Invocation{}

	cmd := &cobra.Command{
		Use:   "oswc [server] [-p port] [username [password]]",
		Short: "Terminal client for a federated social network",
		Long: `oswc is an interactive console for a federated social network.

Lines starting with / are commands, anything else is posted as a status.
Type /help once connected for the list of commands.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				inv.Server = args[0]
			}
			if len(args) > 1 {
				inv.Username = args[1]
			}
			if len(args) > 2 {
				inv.Password = args[2]
			}
			if err := inv.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), inv)
		},
	}

	cmd.Flags().StringVarP(&inv.Port, "port", "p", "", "Server port (default from config)")
	cmd.PersistentFlags().StringVar(&inv.ConfigPath, "config", "", "Config file (default: ~/.oswc/config.toml)")
	cmd.PersistentFlags().StringVar(&inv.Driver, "driver", "", "Service driver: local or gateway")
	cmd.PersistentFlags().BoolVarP(&inv.Verbose, "verbose", "v", false, "Log at debug level")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	// Positional argument errors come from Args.
	args := cmd.Args
	cmd.Args = func(c *cobra.Command, a []string) error {
		if err := args(c, a); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
	return cmd
}

// Execute runs oswc with the process arguments and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd(Run)
	if err := cmd.ExecuteContext(ctx); err != nil {
		DisplayError(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// =============================================================================
// SESSION
// =============================================================================

// loadConfig resolves the configuration for inv.
func loadConfig(inv *Invocation) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if inv.ConfigPath != "" {
		cfg, err = config.LoadFromPath(inv.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Path: inv.ConfigPath, Err: err}
	}

	if inv.Driver != "" {
		cfg.Service.Driver = strings.ToLower(inv.Driver)
		if err := cfg.Validate(); err != nil {
			return nil, &ConfigError{Path: inv.ConfigPath, Err: err}
		}
	}
	return cfg, nil
}

// openLogger returns the file logger, or a no-op logger when the log file
// cannot be opened.
func openLogger(cfg *config.Config, verbose bool, stderr io.Writer) *zap.Logger {
	logger, err := logging.New(logging.Options{
		File:    cfg.LogPath(),
		Level:   cfg.Log.Level,
		Verbose: verbose,
	})
	if err != nil {
		fmt.Fprintln(stderr, DimStyle.Render("logging disabled: "+err.Error()))
		return logging.Nop()
	}
	return logger
}

// Run opens the configured service and runs the interactive session until
// the user quits or input ends.
func Run(ctx context.Context, inv *Invocation) error {
	cfg, err := loadConfig(inv)
	if err != nil {
		return err
	}

	logger := openLogger(cfg, inv.Verbose, os.Stderr)
	defer func() { _ = logger.Sync() }()

	svc, err := NewService(cfg, logger)
	if err != nil {
		return err
	}

	out := render.New(os.Stdout,
		render.WithColors(cfg.UI.Colors && ColorsEnabled()),
		render.WithLogger(logger.Named("render")),
	)

	registry := commands.NewRegistry()
	completer := commands.NewCompleter(registry)
	console := NewConsole(cfg.HistoryPath(), completer.Complete, logger.Named("console"))
	defer console.Close()

	state := session.New()
	d := commands.NewDispatcher(&commands.Context{
		Service:        svc,
		State:          state,
		Prompter:       console,
		Out:            out,
		Logger:         logger.Named("commands"),
		Registry:       registry,
		DefaultPort:    cfg.Service.DefaultPort,
		ClientTag:      cfg.Service.ClientTag,
		ConnectOptions: connectOptions(cfg),
	})
	defer func() {
		if !svc.Connected() {
			return
		}
		if err := svc.Disconnect(context.Background()); err != nil {
			logger.Debug("disconnect on exit failed", zap.Error(err))
		}
		state.Disconnect()
	}()

	logger.Info("session started",
		zap.String("session_id", state.SessionID()),
		zap.String("driver", cfg.Service.Driver))

	if quit := RunStartup(ctx, d, inv.Startup()); quit {
		return nil
	}
	if err := RunREPL(ctx, console, d, state); err != nil {
		return err
	}

	logger.Info("session ended", zap.Duration("duration", state.Duration()))
	return nil
}
