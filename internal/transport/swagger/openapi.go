package swagger

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
)

// ValidateDocument loads and validates the OpenAPI document the router serves,
// so a broken edit surfaces at startup instead of inside the swagger UI.
func ValidateDocument(ctx context.Context, path string) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return err
	}
	return doc.Validate(ctx)
}
