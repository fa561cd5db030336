//go:build !allocxdebug

package allocx

// debugChecks gates the assertions that catch contract violations
// (double free, foreign pointers, unrecoverable headers). Build with
// -tags allocxdebug to enable them.
const debugChecks = false
