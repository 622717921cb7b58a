package golang

import (
	"os"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/mod/modfile"
)

// goModule is the module enclosing a directory
type goModule struct {
	path string
	dir  string
}

// moduleIndex caches the nearest go.mod lookup per directory
type moduleIndex struct {
	mu   sync.Mutex
	dirs map[string]*goModule
}

var modules = &moduleIndex{dirs: make(map[string]*goModule)}

// find returns the module whose go.mod is in dir or its nearest ancestor,
// or nil when there is none.
func (m *moduleIndex) find(dir string) *goModule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(dir)
}

func (m *moduleIndex) findLocked(dir string) *goModule {
	if mod, ok := m.dirs[dir]; ok {
		return mod
	}

	var mod *goModule
	if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
		if modPath := modfile.ModulePath(data); modPath != "" {
			mod = &goModule{path: modPath, dir: dir}
		}
	}
	if mod == nil {
		if parent := filepath.Dir(dir); parent != dir {
			mod = m.findLocked(parent)
		}
	}
	m.dirs[dir] = mod
	return mod
}

// importPath returns the scope of a Go file: the import path of its
// directory when a go.mod encloses it, else the slash-separated directory
// relative to the project root. Files at the root fall back to the package
// name.
func importPath(absPath, relPath, pkgName string) string {
	dir := filepath.Dir(absPath)
	if mod := modules.find(dir); mod != nil {
		rel, err := filepath.Rel(mod.dir, dir)
		if err == nil {
			if rel == "." {
				return mod.path
			}
			return mod.path + "/" + filepath.ToSlash(rel)
		}
	}

	relDir := path.Dir(filepath.ToSlash(relPath))
	if relDir == "." || relDir == "" {
		return pkgName
	}
	return relDir
}
