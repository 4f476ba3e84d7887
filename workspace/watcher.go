package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileWatcher polls the workspace root for added, changed and removed
// instance documents.
type FileWatcher struct {
	workspace    *Workspace
	stopCh       chan struct{}
	stopOnce     sync.Once
	pollInterval time.Duration
	modTimes     map[string]time.Time
	onChange     func(path string, removed bool)
}

func NewFileWatcher(w *Workspace) *FileWatcher {
	return &FileWatcher{
		workspace:    w,
		stopCh:       make(chan struct{}),
		pollInterval: 1 * time.Second,
		modTimes:     make(map[string]time.Time),
	}
}

func (fw *FileWatcher) WithInterval(d time.Duration) *FileWatcher {
	if d > 0 {
		fw.pollInterval = d
	}
	return fw
}

// OnChange registers fn to run after a file was rescanned or removed.
func (fw *FileWatcher) OnChange(fn func(path string, removed bool)) *FileWatcher {
	fw.onChange = fn
	return fw
}

func (fw *FileWatcher) Start() {
	go fw.run()
}

func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() { close(fw.stopCh) })
}

func (fw *FileWatcher) run() {
	ticker := time.NewTicker(fw.pollInterval)
	defer ticker.Stop()

	fw.Poll()

	for {
		select {
		case <-fw.stopCh:
			return
		case <-ticker.C:
			fw.Poll()
		}
	}
}

// Poll runs one scan. It is not safe to call concurrently with a started
// watcher.
func (fw *FileWatcher) Poll() {
	current := make(map[string]bool)
	root := fw.workspace.RootDir()

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsInstancePath(path) {
			return nil
		}

		current[path] = true

		lastMod, known := fw.modTimes[path]
		if !known || info.ModTime().After(lastMod) {
			fw.modTimes[path] = info.ModTime()
			if err := fw.workspace.ScanFile(path); err != nil {
				fw.workspace.log.Warningf("rescan %s: %s", path, err)
				return nil
			}
			fw.notify(path, false)
		}
		return nil
	})

	for path := range fw.modTimes {
		if !current[path] {
			delete(fw.modTimes, path)
			fw.workspace.RemoveFile(path)
			fw.notify(path, true)
		}
	}
}

func (fw *FileWatcher) notify(path string, removed bool) {
	if fw.onChange != nil {
		fw.onChange(path, removed)
	}
}
