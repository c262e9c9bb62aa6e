// Package reconcile diffs an evaluated desired state against a snapshot
// of the machine and emits an ordered action plan: add repositories,
// install, configure, remove, then service changes. Plans are computed
// against one snapshot, are deterministic for a given input, and are
// empty when the machine already matches.
package reconcile
