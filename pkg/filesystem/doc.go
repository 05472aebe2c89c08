// Package filesystem provides filesystem utility methods either not provided
// by the Go standard library or requiring a more optimized implementation:
// atomic writes, fast tree walking, path normalization, and permission-bit
// helpers.
package filesystem
