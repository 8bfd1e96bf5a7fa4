package module

import "sync"

// ports by module name, filled as modules are mounted
var registry sync.Map

// Register records the port set of a module. A later call for the same name wins
func Register(name string, ports any) { registry.Store(name, ports) }

// PortsAs returns the port set registered under name when it is a T
func PortsAs[T any](name string) (T, bool) {
	v, _ := registry.Load(name)
	p, ok := v.(T)
	return p, ok
}

// Reset forgets every registration. Tests that mount modules call it on cleanup
func Reset() { registry.Clear() }
