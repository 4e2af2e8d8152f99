package resource

// IncludeResolverAdapter satisfies internal/preprocess's IncludeResolver by
// delegating to a Loader, always requesting TypeNSS (spec.md §9: "The
// compiler only requests type nss (source)"). This is the one place a
// Loader crosses into compiler-facing code; everything else in the
// compiler sees the narrower IncludeResolver interface instead.
type IncludeResolverAdapter struct {
	Loader Loader
}

func (a IncludeResolverAdapter) ResolveInclude(name string) ([]byte, error) {
	return a.Loader.Load(name, TypeNSS)
}
