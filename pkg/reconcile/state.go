package reconcile

// ServiceState is the observed state of one service.
type ServiceState struct {
	Enabled bool
}

// ActualState is one consistent snapshot of the machine, queried once
// per reconciliation pass and never re-queried mid-plan.
type ActualState struct {
	// Installed is the set of installed packages by their
	// package-manager names.
	Installed map[string]struct{}

	// Repos is the set of configured repository locations, keyed by
	// repository display string.
	Repos map[string]struct{}

	// Files maps tracked configuration targets to the content hash of
	// what is currently on disk. A missing key means the target does
	// not exist or is not tracked.
	Files map[string]string

	// Services maps service names to their observed state.
	Services map[string]ServiceState
}

// NewActualState returns an empty snapshot.
func NewActualState() *ActualState {
	return &ActualState{
		Installed: make(map[string]struct{}),
		Repos:     make(map[string]struct{}),
		Files:     make(map[string]string),
		Services:  make(map[string]ServiceState),
	}
}

// IsInstalled reports whether a package-manager name is installed.
func (s *ActualState) IsInstalled(externalName string) bool {
	_, ok := s.Installed[externalName]
	return ok
}

// HasRepo reports whether a repository location is already configured.
func (s *ActualState) HasRepo(display string) bool {
	_, ok := s.Repos[display]
	return ok
}
