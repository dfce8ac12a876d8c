package assets

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/anima-frames/engine/assets/loaders"
	"github.com/spaghettifunk/anima-frames/engine/core"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
)

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

// ShaderPair holds the SPIR-V blobs of one graphics pipeline.
type ShaderPair struct {
	Vertex   []byte
	Fragment []byte
}

// AssetManager loads assets from disk and, once watching, reports files
// that were written so their users can reload them.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader
	// Paths passed to Watch. Removing a file leaves its entry in place so a
	// replacement written later is still reported.
	watched map[string]struct{}

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	changes  chan string
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetType]Loader),
		watched: make(map[string]struct{}),
		changes: make(chan string, 16),
	}
	// Register loaders
	am.registerLoader(AssetTypeShader, &loaders.ShaderLoader{})
	return am
}

// Watch starts reporting writes to files under the directories of paths.
func (am *AssetManager) Watch(paths ...string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	if am.fsnotify == nil {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return errors.Wrap(err, "create watcher")
		}
		am.fsnotify = fsWatch
		am.done = make(chan struct{})
		am.stopped = make(chan struct{})
		go am.start()
	}

	for _, p := range paths {
		p = absPath(p)
		am.mutex.Lock()
		am.watched[p] = struct{}{}
		am.mutex.Unlock()

		dir := filepath.Dir(p)
		if err := am.fsnotify.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
		core.LogDebug("watching %s", dir)
	}
	return nil
}

// Changes delivers the absolute paths of loaded or watched asset files that
// were created or written. Writes are dropped while the channel is full.
func (am *AssetManager) Changes() <-chan string {
	return am.changes
}

// Shutdown stops the watcher. Loading keeps working afterwards.
func (am *AssetManager) Shutdown() {
	if am.isClosed {
		return
	}
	am.isClosed = true
	if am.fsnotify != nil {
		close(am.done)
		<-am.stopped
	}
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset reads path with the loader matching its extension.
func (am *AssetManager) LoadAsset(path string) (*loaders.Resource, error) {
	assetType := determineAssetType(path)
	loader, loaderExists := am.loaders[assetType]
	if !loaderExists {
		return nil, errors.Errorf("no loader registered for %s", path)
	}

	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[absPath(path)] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	am.mutex.Unlock()
	return res, nil
}

// LoadShaders reads the vertex and fragment blobs of a pipeline.
func (am *AssetManager) LoadShaders(vertex, fragment string) (ShaderPair, error) {
	vs, err := am.LoadAsset(vertex)
	if err != nil {
		return ShaderPair{}, errors.Wrap(core.ErrShaderMissing, err.Error())
	}
	fs, err := am.LoadAsset(fragment)
	if err != nil {
		return ShaderPair{}, errors.Wrap(core.ErrShaderMissing, err.Error())
	}
	return ShaderPair{Vertex: vs.Data, Fragment: fs.Data}, nil
}

// Info returns what is known about a loaded asset.
func (am *AssetManager) Info(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[absPath(path)]
	return info, ok
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	if determineAssetType(path) == AssetTypeNone {
		return
	}
	path = absPath(path)

	am.mutex.RLock()
	_, known := am.assets[path]
	if !known {
		_, known = am.watched[path]
	}
	am.mutex.RUnlock()
	if !known {
		return
	}

	select {
	case am.changes <- path:
	default:
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, absPath(path))
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeShader
	default:
		return AssetTypeNone
	}
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// IsShaderChange reports whether changed names one of the blobs of a pair.
func IsShaderChange(changed string, paths ...string) bool {
	for _, p := range paths {
		if absPath(p) == changed {
			return true
		}
	}
	return false
}
