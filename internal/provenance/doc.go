// Package provenance resolves build-time repository metadata.
//
// It locates the git executable, runs a fixed set of read-only queries
// through execshell, and exposes the resulting RepoStatus once per process
// via StatusCache so the surrounding build can stamp produced artifacts.
package provenance
