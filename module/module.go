package module

// Module identifies a selected implementation. The entity that loaded
// it owns the handle and drops it on its own close path; the registry
// keeps no per-load state.
type Module struct {
	name       string
	capability string
	priority   int
}

// Name returns the implementation name the module was registered under.
func (m *Module) Name() string {
	return m.name
}

// Capability returns the capability the module was selected for.
func (m *Module) Capability() string {
	return m.capability
}

// Priority returns the registration priority of the selected
// implementation.
func (m *Module) Priority() int {
	return m.priority
}
