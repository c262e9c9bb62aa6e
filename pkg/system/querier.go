package system

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/reconcile"
)

// StateQuerier produces one consistent actual-state snapshot. The
// reconciler calls it once per pass and never again mid-plan.
type StateQuerier interface {
	Snapshot(ctx context.Context) (*reconcile.ActualState, error)
}

// XBPSQuerier reads actual state from xbps and runit: installed packages
// via xbps-query -l, configured repositories via xbps-query -L, and
// enabled services from the runit service directory.
type XBPSQuerier struct {
	run        commandRunner
	serviceDir string
	logger     zerolog.Logger
}

// NewXBPSQuerier creates a querier with a per-invocation timeout.
func NewXBPSQuerier(timeout time.Duration, logger zerolog.Logger) *XBPSQuerier {
	return &XBPSQuerier{
		run:        execRunner{timeout: timeout},
		serviceDir: "/var/service",
		logger:     logger.With().Str("component", "xbps-query").Logger(),
	}
}

// Snapshot implements StateQuerier.
func (q *XBPSQuerier) Snapshot(ctx context.Context) (*reconcile.ActualState, error) {
	state := reconcile.NewActualState()

	out, err := q.run.run(ctx, "xbps-query", "-l")
	if err != nil {
		return nil, err
	}
	for name := range parseInstalled(out) {
		state.Installed[name] = struct{}{}
	}

	out, err = q.run.run(ctx, "xbps-query", "-L")
	if err != nil {
		return nil, err
	}
	for _, repo := range parseRepositories(out) {
		state.Repos[repo] = struct{}{}
	}

	if err := q.readServices(state); err != nil {
		return nil, err
	}

	q.logger.Debug().
		Int("installed", len(state.Installed)).
		Int("repos", len(state.Repos)).
		Int("services", len(state.Services)).
		Msg("Actual state queried")
	return state, nil
}

// parseInstalled reads `xbps-query -l` output. Each line is
// "ii pkgname-1.0_1 short description"; the version suffix after the
// last hyphen is stripped.
func parseInstalled(out string) map[string]struct{} {
	installed := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "i") {
			continue
		}
		pkgver := fields[1]
		if cut := strings.LastIndex(pkgver, "-"); cut > 0 {
			installed[pkgver[:cut]] = struct{}{}
		}
	}
	return installed
}

// parseRepositories reads `xbps-query -L` output. Each line is
// "  1234 https://... (RSA signed)"; the second field is the location.
func parseRepositories(out string) []string {
	var repos []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		repos = append(repos, fields[1])
	}
	return repos
}

// readServices treats a symlink in the runit service directory as an
// enabled service.
func (q *XBPSQuerier) readServices(state *reconcile.ActualState) error {
	entries, err := os.ReadDir(q.serviceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &ExecutionFailure{Class: FailurePermanent, Operation: "read " + q.serviceDir, Err: err}
	}
	for _, entry := range entries {
		info, err := os.Lstat(filepath.Join(q.serviceDir, entry.Name()))
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			continue
		}
		state.Services[entry.Name()] = reconcile.ServiceState{Enabled: true}
	}
	return nil
}
