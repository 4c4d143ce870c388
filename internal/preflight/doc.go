// Package preflight provides readiness checks for the filesystem paths,
// external binaries, and services that scribe depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll before processing each queue item.
//     If any check fails, processing halts to avoid wasting long runs.
//   - The CLI "scribe status" command uses individual check functions to
//     display health.
package preflight
