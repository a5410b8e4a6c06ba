package filter

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed defaults/*.stopwords
var defaultFiles embed.FS

// EnvFilterDir names the environment variable that points at a filter directory
const EnvFilterDir = "GLANCELOG_FILTERDIR"

// Filter file names, one per grouping mode
const (
	HashFile   = "hash.stopwords"
	WordsFile  = "words.stopwords"
	DaemonFile = "daemon.stopwords"
	HostFile   = "host.stopwords"
)

// Tier identifies where resolved filter content came from
type Tier string

const (
	TierExplicit Tier = "explicit"
	TierEnv      Tier = "environment"
	TierHome     Tier = "home"
	TierCwd      Tier = "cwd"
	TierSystem   Tier = "system"
	TierEmbedded Tier = "embedded"
)

// systemDirs are consulted after the user supplied locations
var systemDirs = []string{
	"/var/lib/glancelog/filters",
	"/usr/local/glancelog/var/lib/filters",
	"/opt/glancelog/var/lib/filters",
}

// ResolveOptions carries everything resolution depends on
type ResolveOptions struct {
	Dir  string              // explicit --filter-dir, highest priority
	Env  func(string) string // environment lookup, os.Getenv when nil
	Home string              // home directory, skipped when empty
	Stat func(string) (os.FileInfo, error)
	Read func(string) ([]byte, error)
}

// Candidate is one location in the search path
type Candidate struct {
	Tier Tier
	Path string
}

// Source is resolved filter content
type Source struct {
	Name string
	Tier Tier
	Path string
	Data []byte
}

// DefaultResolveOptions uses the process environment and home directory
func DefaultResolveOptions(dir string) ResolveOptions {
	home, _ := os.UserHomeDir()
	return ResolveOptions{
		Dir:  dir,
		Env:  os.Getenv,
		Home: home,
	}
}

// SearchPaths lists the on-disk candidates for a filter file in priority order
func SearchPaths(name string, opts ResolveOptions) []Candidate {
	env := opts.Env
	if env == nil {
		env = os.Getenv
	}

	var candidates []Candidate
	if opts.Dir != "" {
		candidates = append(candidates, Candidate{Tier: TierExplicit, Path: filepath.Join(opts.Dir, name)})
	}
	if dir := env(EnvFilterDir); dir != "" {
		candidates = append(candidates, Candidate{Tier: TierEnv, Path: filepath.Join(dir, name)})
	}
	if opts.Home != "" {
		candidates = append(candidates, Candidate{Tier: TierHome, Path: filepath.Join(opts.Home, ".glancelog", "filters", name)})
	}
	candidates = append(candidates, Candidate{Tier: TierCwd, Path: filepath.Join("filters", name)})
	for _, dir := range systemDirs {
		candidates = append(candidates, Candidate{Tier: TierSystem, Path: filepath.Join(dir, name)})
	}
	return candidates
}

// Resolve returns the content of the first filter file found on the search
// path, falling back to the embedded default
func Resolve(name string, opts ResolveOptions) (*Source, error) {
	stat := opts.Stat
	if stat == nil {
		stat = os.Stat
	}
	read := opts.Read
	if read == nil {
		read = os.ReadFile
	}

	for _, c := range SearchPaths(name, opts) {
		info, err := stat(c.Path)
		if err != nil || info.IsDir() {
			continue
		}
		// #nosec G304 - candidates come from the fixed search path
		data, err := read(c.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read filter %s: %w", c.Path, err)
		}
		return &Source{Name: name, Tier: c.Tier, Path: c.Path, Data: data}, nil
	}

	data, err := Embedded(name)
	if err != nil {
		return nil, err
	}
	return &Source{Name: name, Tier: TierEmbedded, Path: "embedded:" + name, Data: data}, nil
}

// Embedded returns the compiled-in default for a filter file
func Embedded(name string) ([]byte, error) {
	data, err := defaultFiles.ReadFile("defaults/" + name)
	if err != nil {
		return nil, fmt.Errorf("no embedded filter named %s", name)
	}
	return data, nil
}

// EmbeddedNames lists the compiled-in filter files
func EmbeddedNames() []string {
	entries, err := defaultFiles.ReadDir("defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Export writes every embedded filter into dir and returns the written paths
func Export(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("empty export directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var written []string
	for _, name := range EmbeddedNames() {
		data, err := Embedded(name)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, name)
		// #nosec G306 - filter files are meant to be shared and edited
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// DefaultExportDir is where export goes when no directory is given
func DefaultExportDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".glancelog", "filters"), nil
}
