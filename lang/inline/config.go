package inline

// Config holds the pass's own configuration. It is empty today (spec.md §6:
// "the pass accepts a single configuration value with no recognized options
// at present") - it exists so the CLI and any future pass option have a
// stable place to live without changing New's signature.
type Config struct{}
