package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// NewLoader creates a new Loader with an empty cache and the YAML backend.
//
// Parameters:
//   - options: functional options to configure the loader
//
// Returns:
//   - Loader: the newly created loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		dir:       "poses",
		poseCache: make(map[string]*PoseAsset),
		pathIndex: make(map[string]string),
		backend:   yamlLoaderBackend{},
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// WithDir is an option builder that sets the default pose directory.
//
// Parameters:
//   - dir: the directory LoadDir and Save default to
//
// Returns:
//   - LoaderBuilderOption: a function that applies the directory option to a loader
func WithDir(dir string) LoaderBuilderOption {
	return func(l *loader) {
		if dir != "" {
			l.dir = dir
		}
	}
}

// WithPose is an option builder that pre-populates the cache with an asset.
//
// Parameters:
//   - asset: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the pose option to a loader
func WithPose(asset *PoseAsset) LoaderBuilderOption {
	return func(l *loader) {
		if asset != nil {
			l.store(cloneAsset(asset))
		}
	}
}
