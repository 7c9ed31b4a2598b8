// Package describe provides the boundary to the waste description service.
// Descriptions are always produced in the base language; localization of a
// description is the translation boundary's job, never this one's.
package describe

import "context"

// Describer produces a short base-language description of a waste type.
type Describer interface {
	// Describe returns a 1-2 sentence description of the given waste type,
	// focused on its common sources or uses.
	Describe(ctx context.Context, wasteType string) (string, error)
}

// DescriberFunc adapts a function to the Describer interface.
type DescriberFunc func(ctx context.Context, wasteType string) (string, error)

// Describe calls f.
func (f DescriberFunc) Describe(ctx context.Context, wasteType string) (string, error) {
	return f(ctx, wasteType)
}
