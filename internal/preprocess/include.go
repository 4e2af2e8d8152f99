package preprocess

// IncludeResolver is the narrow callback the preprocessor needs to honor
// #include "name": the façade supplies one backed by a resource.Loader so
// that this package never depends on resource-location details (spec.md
// §4.2, §9 "Dynamic dispatch ... expressed as an abstract capability").
type IncludeResolver interface {
	ResolveInclude(name string) ([]byte, error)
}

// IncludeResolverFunc adapts a plain function to IncludeResolver.
type IncludeResolverFunc func(name string) ([]byte, error)

func (f IncludeResolverFunc) ResolveInclude(name string) ([]byte, error) { return f(name) }
