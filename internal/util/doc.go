// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the oswc packages.
//
// # Key Functions
//
// Display width:
//   - StringWidth: Terminal column width of a string
//   - ClipWidth: Width-aware truncation
//   - PadRight: Width-aware column padding
//   - SanitizeLine: Strip control characters from untrusted text
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	// Fit a line to the terminal
//	line := util.ClipWidth(util.SanitizeLine(entry.Title), width)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
