// Package destination abstracts where finished export artifacts land.
//
// A Destination stages artifacts as write targets. Bytes written to a
// target are not visible at the final location until Commit; a target that
// is discarded instead leaves nothing behind. The local filesystem
// destination implements this with a temporary file in the artifact
// directory and an atomic rename on commit, so readers never observe a
// partially written artifact.
//
// When two artifacts want the same file name, the later commit appends a
// " (n)" suffix before the extension rather than overwriting.
//
// # Bundles
//
// Bundle wraps a write target in a zip archive holding the data file plus
// a manifest.json describing the run that produced it. Callers stream the
// payload through the bundle and supply the manifest at close time, once
// the final counts are known.
package destination
