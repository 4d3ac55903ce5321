package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrPoseNotFound is returned by Get-style lookups when no asset with the requested name is cached.
var ErrPoseNotFound = errors.New("pose not found")

// poseExtensions are the file extensions recognised as pose assets.
var poseExtensions = map[string]bool{".yaml": true, ".yml": true}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	dir string

	poseCache map[string]*PoseAsset
	pathIndex map[string]string // absolute file path -> pose name

	backend loaderBackend
}

// Loader loads, caches and saves hand pose assets. Assets are cached by pose name; loading a
// file whose name is already cached replaces the cached entry. Safe for concurrent use.
type Loader interface {
	// Dir returns the directory LoadDir and Save default to.
	Dir() string

	// Load decodes a single pose asset file and caches it.
	//
	// Parameters:
	//   - path: the file path of the asset
	//
	// Returns:
	//   - *PoseAsset: a copy of the loaded asset
	//   - error: error if reading or decoding fails
	Load(path string) (*PoseAsset, error)

	// LoadReader decodes a pose asset from a reader and caches it.
	//
	// Parameters:
	//   - r: the reader providing asset data
	//
	// Returns:
	//   - *PoseAsset: a copy of the loaded asset
	//   - error: error if decoding fails
	LoadReader(r io.Reader) (*PoseAsset, error)

	// LoadDir loads every pose asset file directly inside dir. Files that fail to decode are
	// logged and skipped so one bad asset does not hide the rest.
	//
	// Parameters:
	//   - dir: the directory to scan (empty uses Dir())
	//
	// Returns:
	//   - int: the number of assets loaded
	//   - error: error if the directory cannot be read
	LoadDir(dir string) (int, error)

	// Get retrieves a cached asset by pose name.
	//
	// Parameters:
	//   - name: the pose name
	//
	// Returns:
	//   - *PoseAsset: a copy of the cached asset
	//   - error: ErrPoseNotFound if nothing is cached under name
	Get(name string) (*PoseAsset, error)

	// Names returns the cached pose names in sorted order.
	Names() []string

	// Put caches an asset without writing it to disk. A nil ID is derived from the pose name.
	//
	// Parameters:
	//   - asset: the asset to cache (copied)
	Put(asset *PoseAsset)

	// Save caches the asset and writes it to path. An empty path writes
	// <Dir()>/<name>.yaml. A nil ID is derived from the pose name.
	//
	// Parameters:
	//   - asset: the asset to save
	//   - path: the destination file, or empty for the default location
	//
	// Returns:
	//   - string: the path written
	//   - error: error if encoding or writing fails
	Save(asset *PoseAsset, path string) (string, error)

	// Forget drops the cache entry that was loaded from path, if any.
	//
	// Parameters:
	//   - path: the file path the entry was loaded from
	//
	// Returns:
	//   - string: the forgotten pose name, or empty if nothing matched
	Forget(path string) string
}

var _ Loader = &loader{}

func (l *loader) Dir() string {
	return l.dir
}

func (l *loader) Load(path string) (*PoseAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", path, err)
	}
	asset, err := l.backend.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", path, err)
	}

	abs, absErr := filepath.Abs(path)
	if absErr != nil {
		abs = path
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.store(asset)
	l.index(abs, asset.Pose.Name)
	return cloneAsset(asset), nil
}

func (l *loader) LoadReader(r io.Reader) (*PoseAsset, error) {
	asset, err := l.backend.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("loader: load reader: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store(asset)
	return cloneAsset(asset), nil
}

func (l *loader) LoadDir(dir string) (int, error) {
	if dir == "" {
		dir = l.dir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("loader: read dir %s: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || !IsPoseFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := l.Load(path); err != nil {
			log.Printf("[Loader] skipping %s: %v", path, err)
			continue
		}
		count++
	}
	return count, nil
}

func (l *loader) Get(name string) (*PoseAsset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.poseCache[name]
	if !ok {
		return nil, fmt.Errorf("loader: %q: %w", name, ErrPoseNotFound)
	}
	return cloneAsset(a), nil
}

func (l *loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.poseCache))
	for n := range l.poseCache {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (l *loader) Put(asset *PoseAsset) {
	if asset == nil {
		return
	}
	c := cloneAsset(asset)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store(c)
	asset.ID = c.ID
}

func (l *loader) Save(asset *PoseAsset, path string) (string, error) {
	if asset == nil || asset.Pose.Name == "" {
		return "", fmt.Errorf("loader: save: asset must have a name")
	}
	if asset.ID == uuid.Nil {
		asset.ID = assetID(asset.Pose.Name)
	}
	if path == "" {
		path = filepath.Join(l.dir, asset.Pose.Name+".yaml")
	}

	var buf bytes.Buffer
	if err := l.backend.Encode(&buf, asset); err != nil {
		return "", fmt.Errorf("loader: save %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("loader: save %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("loader: save %s: %w", path, err)
	}

	abs, absErr := filepath.Abs(path)
	if absErr != nil {
		abs = path
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store(cloneAsset(asset))
	l.index(abs, asset.Pose.Name)
	return path, nil
}

func (l *loader) Forget(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	name, ok := l.pathIndex[abs]
	if !ok {
		return ""
	}
	delete(l.pathIndex, abs)
	delete(l.poseCache, name)
	return name
}

// store caches asset, assigning an ID when it has none. Caller must hold l.mu.
func (l *loader) store(asset *PoseAsset) {
	if asset.ID == uuid.Nil {
		asset.ID = assetID(asset.Pose.Name)
	}
	l.poseCache[asset.Pose.Name] = asset
}

// index records that abs now holds the pose name. A file that used to hold a different
// pose no longer backs it, so the old entry is dropped. Caller must hold l.mu.
func (l *loader) index(abs, name string) {
	if prev, ok := l.pathIndex[abs]; ok && prev != name {
		delete(l.poseCache, prev)
		log.Printf("[Loader] %s renamed pose %q to %q", abs, prev, name)
	}
	l.pathIndex[abs] = name
}

// assetID derives a stable ID from a pose name so the same asset keeps its ID across runs.
func assetID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))
}

// IsPoseFile reports whether a file name has a pose asset extension.
//
// Parameters:
//   - name: the file name or path
//
// Returns:
//   - bool: true for .yaml/.yml files
func IsPoseFile(name string) bool {
	return poseExtensions[strings.ToLower(filepath.Ext(name))]
}

func cloneAsset(a *PoseAsset) *PoseAsset {
	c := *a
	c.Pose = a.Pose.Clone()
	return &c
}

// LoadPose decodes a single pose asset file without caching it.
//
// Parameters:
//   - path: the file path of the asset
//
// Returns:
//   - *PoseAsset: the decoded asset
//   - error: error if reading or decoding fails
func LoadPose(path string) (*PoseAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", path, err)
	}
	defer f.Close()
	asset, err := yamlLoaderBackend{}.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", path, err)
	}
	return asset, nil
}

// SavePose encodes a single pose asset to path, creating parent directories as needed.
//
// Parameters:
//   - path: the destination file
//   - asset: the asset to write
//
// Returns:
//   - error: error if encoding or writing fails
func SavePose(path string, asset *PoseAsset) error {
	_, err := NewLoader(WithDir(filepath.Dir(path))).Save(asset, path)
	return err
}
