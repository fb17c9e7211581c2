// Package model defines the error vocabulary shared by every layer of the
// inventory tool.
//
// Inventory operations fail with one of two kinds:
//
//   - MalformedInput: the caller passed something wrong (unknown name,
//     duplicate alias, invalid address literal, unreadable file). Retrying
//     with corrected input is always safe; nothing was mutated.
//   - BadData: the loaded or derived state itself is inconsistent
//     (unsupported version, overlapping pools, broken autoallocation).
//
// The package also defines process exit codes (ExitCode) and CLIError,
// which the cli package uses to translate error kinds into OS exit codes.
package model
