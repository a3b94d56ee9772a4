package source

// RegisterBuiltins registers the built-in drivers (inline, csv, artifact)
// on a registry. Call it once at startup before opening any catalog;
// reconstructing persisted entries requires at least the artifact driver.
func RegisterBuiltins(r *Registry) error {
	builtins := map[string]Factory{
		DriverInline:   NewInline,
		DriverCSV:      NewCSV,
		DriverArtifact: NewArtifact,
	}
	for name, factory := range builtins {
		if err := r.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}
