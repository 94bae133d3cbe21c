// Package strtab is the string interning table of a managed runtime
// together with the heap, safepoint and collector pieces it talks to.
package strtab

var (
	// Version is the unified version of the whole strtab project.
	Version = "unknown"

	// BuildId is the SCM commit id.
	BuildId = "?"

	// BuiltAt is the time when build.sh was run.
	BuiltAt = "1970"
)
