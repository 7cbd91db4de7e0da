package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
)

// ErrNoScripts is returned when a directory holds no .sql files.
var ErrNoScripts = errors.New("no .sql files found")

// Script is one discovered source file.
type Script struct {
	Path    string          // path as found on disk
	RelPath string          // slash-separated path relative to the load root
	Name    string          // declared name from frontmatter, may be empty
	Kind    core.ScriptKind // declared or detected kind, "" when none was found
	SQL     string
	Hash    string
	Config  *FrontmatterConfig

	// DetectErr is set when the text could not be parsed for kind
	// detection. The script is still returned so callers can report it.
	DetectErr error
}

// LoadError is a per-file failure. It does not stop discovery of other files.
type LoadError struct {
	Path string
	Type string // "read" or "frontmatter"
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Type, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Result is the outcome of a Load call.
type Result struct {
	Scripts []*Script
	Errors  []*LoadError
}

// HasErrors reports whether any file failed to load.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Loader reads script files. The analyser is used for kind detection and may
// be nil, in which case only frontmatter kinds are known.
type Loader struct {
	analyser dialect.Analyser
	exclude  []string
	logger   *slog.Logger
}

// New creates a Loader. A nil logger discards output.
func New(analyser dialect.Analyser, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{analyser: analyser, logger: logger}
}

// Exclude skips files whose relative path matches one of patterns
// (path.Match syntax, slash-separated). A pattern without a slash is also
// matched against the base name.
func (l *Loader) Exclude(patterns ...string) error {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", p, err)
		}
	}
	l.exclude = append(l.exclude, patterns...)
	return nil
}

func (l *Loader) excluded(rel string) bool {
	for _, p := range l.exclude {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}

// Load reads root, which is either a single file or a directory walked
// recursively for .sql files. Hidden files and directories are skipped.
// Scripts are returned ordered by RelPath.
func (l *Loader) Load(root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if !info.IsDir() {
		l.add(result, root, filepath.Base(root))
		return result, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsScriptFile(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if l.excluded(rel) {
			l.logger.Debug("excluded file", slog.String("path", rel))
			return nil
		}
		l.add(result, path, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(result.Scripts) == 0 && len(result.Errors) == 0 {
		return nil, fmt.Errorf("%s: %w", root, ErrNoScripts)
	}

	sort.Slice(result.Scripts, func(i, j int) bool {
		return result.Scripts[i].RelPath < result.Scripts[j].RelPath
	})
	l.logger.Debug("scripts discovered",
		slog.String("root", root),
		slog.Int("scripts", len(result.Scripts)),
		slog.Int("errors", len(result.Errors)))
	return result, nil
}

func (l *Loader) add(result *Result, path, rel string) {
	s, lerr := l.LoadFile(path, rel)
	if lerr != nil {
		l.logger.Debug("skipping file", slog.String("path", path), slog.String("error", lerr.Error()))
		result.Errors = append(result.Errors, lerr)
		return
	}
	result.Scripts = append(result.Scripts, s)
}

// LoadFile reads and prepares one file.
func (l *Loader) LoadFile(path, rel string) (*Script, *LoadError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Type: "read", Err: err}
	}
	s, lerr := l.Parse(string(content))
	if lerr != nil {
		lerr.Path = path
		return nil, lerr
	}
	s.Path = path
	s.RelPath = rel
	return s, nil
}

// Parse prepares script text that did not come from disk.
func (l *Loader) Parse(content string) (*Script, *LoadError) {
	fm, err := ExtractFrontmatter(content)
	if err != nil {
		return nil, &LoadError{Type: "frontmatter", Err: err}
	}

	s := &Script{
		Name:   fm.Config.Name,
		Kind:   fm.Config.Kind,
		SQL:    fm.SQL,
		Hash:   ComputeHash(content),
		Config: fm.Config,
	}
	if s.Kind == "" && l.analyser != nil && !fm.Config.Skip {
		kind, err := l.analyser.DetectKind(s.SQL)
		if err != nil {
			s.DetectErr = err
		}
		s.Kind = kind
	}
	return s, nil
}

// IsScriptFile reports whether path has a .sql extension.
func IsScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// ComputeHash returns a short content hash used to spot changed files.
func ComputeHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:8])
}
