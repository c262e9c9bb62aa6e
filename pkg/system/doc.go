// Package system talks to the machine: it queries installed packages,
// repositories, and services through xbps and runit, and applies
// reconciliation plans through the same tools. Everything above this
// package is side-effect free.
package system
