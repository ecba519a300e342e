// Filename: internal/profile/store.go
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Ext is the file extension of stored profiles.
const Ext = ".json"

// ErrNotFound is returned when a profile name resolves to no file.
var ErrNotFound = errors.New("profile not found")

// Load reads, parses and validates the profile at path. A profile without a
// name takes its file name.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile: %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile: %s: %w", path, err)
	}
	return p, nil
}

// Resolve maps a profile reference to a file path. ref may be a path to an
// existing file, or a bare name looked up as <dir>/<name>.json.
func Resolve(dir, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: no profile given", ErrNotFound)
	}
	if expanded, err := homedir.Expand(ref); err == nil {
		if info, statErr := os.Stat(expanded); statErr == nil && !info.IsDir() {
			return expanded, nil
		}
	}

	root, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("profile: expand %s: %w", dir, err)
	}
	name := ref
	if !strings.HasSuffix(name, Ext) {
		name += Ext
	}
	path := filepath.Join(root, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q (looked in %s)", ErrNotFound, ref, root)
		}
		return "", fmt.Errorf("profile: stat %s: %w", path, err)
	}
	return path, nil
}

// List returns the names of the profiles stored in dir, sorted.
// A missing directory is an empty list.
func List(dir string) ([]string, error) {
	root, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("profile: expand %s: %w", dir, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: list %s: %w", root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}
