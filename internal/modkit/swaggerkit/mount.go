// Package swaggerkit serves the OpenAPI document of the API and the swagger UI over it
package swaggerkit

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	phttp "vdyp/internal/platform/net/http"
)

// instanceName is the swag instance the generated document registers under
const instanceName = "vdyp"

// Mount serves the UI under prefix and the document at prefix/doc.json. base is the
// path the documented routes live under
func Mount(r phttp.Router, prefix, base string) {
	doc := prefix + "/doc.json"
	r.Get(prefix, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, prefix+"/", http.StatusPermanentRedirect)
	})
	r.Get(doc, serveDocJSON(base))
	r.Get(prefix+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName(instanceName),
		httpSwagger.URL(doc),
	))
}
