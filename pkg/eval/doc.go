// Package eval turns parsed configuration statements into an immutable
// desired-state document. Evaluation binds symbols, resolves imports with
// cycle detection, and invokes the builtin function table; it never
// touches the running system.
package eval
