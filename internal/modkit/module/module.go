// Package module looks up module ports, either off a module value or by name from the
// process registry filled while the API is mounted
package module

import "vdyp/internal/modkit"

// Module is the modkit contract
type Module = modkit.Module
