//go:build swag

package swaggerkit

import (
	"github.com/swaggo/swag/v2"

	// registers the document generated by swag init
	_ "vdyp/internal/services/api/docs"
)

var docReader = func() (string, error) { return swag.ReadDoc(instanceName) }
