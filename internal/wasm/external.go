package wasm

import "fmt"

// ExternalModule is the set of exports a previously-instantiated (or host)
// module publishes for resolution by another module's import section.
type ExternalModule struct {
	Functions map[string]*FunctionInstance
	Tables    map[string]*TableInstance
	Memories  map[string]*MemoryInstance
	Globals   map[string]*GlobalInstance
}

// NewExternalModule returns an empty ExternalModule ready for population.
func NewExternalModule() *ExternalModule {
	return &ExternalModule{
		Functions: map[string]*FunctionInstance{},
		Tables:    map[string]*TableInstance{},
		Memories:  map[string]*MemoryInstance{},
		Globals:   map[string]*GlobalInstance{},
	}
}

// ExternalModules is the registry of modules available to satisfy imports,
// keyed by module name. One Store's Instantiate calls consult the same
// ExternalModules set across multiple instantiations, mirroring how a
// conformance linking test registers a module then imports it elsewhere.
type ExternalModules struct {
	modules map[string]*ExternalModule
}

// NewExternalModules returns an empty registry.
func NewExternalModules() *ExternalModules {
	return &ExternalModules{modules: map[string]*ExternalModule{}}
}

// RegisterModule adds or replaces the module named name in the registry.
func (m *ExternalModules) RegisterModule(name string, module *ExternalModule) error {
	if module == nil {
		return fmt.Errorf("cannot register nil module %q", name)
	}
	m.modules[name] = module
	return nil
}

// Get looks up a previously registered module by name.
func (m *ExternalModules) Get(name string) (*ExternalModule, bool) {
	em, ok := m.modules[name]
	return em, ok
}
