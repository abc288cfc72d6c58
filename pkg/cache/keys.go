package cache

// Keyer builds cache keys for pipeline outputs.
type Keyer interface {
	// ResultKey addresses an optimized model.
	ResultKey(inputHash string, opts ResultKeyOpts) string

	// ArtifactKey addresses a rendered image of a model.
	ArtifactKey(modelHash string, opts ArtifactKeyOpts) string
}

// ResultKeyOpts holds every option that changes an optimized model.
type ResultKeyOpts struct {
	Passes []string `json:"passes"`
}

// ArtifactKeyOpts holds every option that changes a rendered image.
type ArtifactKeyOpts struct {
	Format       string `json:"format"`
	RankDir      string `json:"rankdir,omitempty"`
	Initializers bool   `json:"initializers,omitempty"`
	Detailed     bool   `json:"detailed,omitempty"`
}

// DefaultKeyer hashes the key components.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey returns "result:<sha256>".
func (DefaultKeyer) ResultKey(inputHash string, opts ResultKeyOpts) string {
	return hashKey("result", inputHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(modelHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", modelHash, opts)
}
