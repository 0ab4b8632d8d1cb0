// Package binpatch locates an exact byte sequence inside a file and replaces it.
//
// A Patcher is bound to one file and one search/replace pair, both supplied as
// hex strings ("AB00FF14"). The file is loaded eagerly into memory, can be
// inspected and backed up any number of times, and is rewritten by Patch using
// a sibling temporary file that is renamed over the original. The package never
// logs; every failure is returned to the caller as one of InvalidPatternError,
// FileAccessError or PatternNotFoundError.
//
// PatchBytes exposes the same substitution for callers that already hold the
// content in memory, which makes the package easy to embed in tests and tools.
//
// Symlinked targets are written through: the link is kept and the file it
// points to is replaced. Because the new content arrives by rename, the
// rewritten file is owned by the calling user and any other hard links keep
// the old bytes.
//
// Two instances patching the same path concurrently is undefined. Callers that
// need that guarantee must coordinate externally.
package binpatch
