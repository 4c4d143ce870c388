// Package daemon ties the queue store and workflow manager together
// behind a single-instance lock and exposes the operations the IPC
// server forwards to CLI clients.
package daemon
