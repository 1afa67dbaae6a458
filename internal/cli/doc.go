// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires the oswc process: command-line parsing, configuration,
// logging, the service driver and the interactive read-eval loop.
//
// # Key Types
//
//   - Invocation: The parsed command line and the startup commands it implies
//   - Console: liner-based line editor with history and tab completion
//   - LineReader: What RunREPL reads lines from
//   - ValidationError, ConfigError: Errors that map to exit codes
//
// # Usage
//
// From main:
//
//	os.Exit(cli.Execute())
//
// Running a session against an already built dispatcher:
//
//	if !cli.RunStartup(ctx, d, inv.Startup()) {
//	    err = cli.RunREPL(ctx, console, d, state)
//	}
//
// # Exit Codes
//
//   - 0: Normal exit (/quit or end of input)
//   - 1: Unexpected failure
//   - 2: Bad command line, such as a malformed -p port
//   - 3: Configuration could not be loaded or is invalid
package cli
