package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	// Serve swagger UI against the OpenAPI spec exposed at root
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
