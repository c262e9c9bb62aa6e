// Package pkgdef loads declarative package-definition units and compiles
// them into immutable package descriptors. A descriptor carries the
// package-manager name, licensing/restriction flags, and configuration
// file slots for one package symbol. Units loaded from disk shadow the
// builtin catalog; symbols known to neither get an ordinary default.
package pkgdef
