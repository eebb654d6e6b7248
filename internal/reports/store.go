// Package reports persists rendered reports on disk and serves them back by name.
package reports

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report file extensions
const (
	ExtMarkdown = ".md"
	ExtPDF      = ".pdf"
)

// TimestampLayout is the UTC prefix of every report filename
const TimestampLayout = "20060102150405"

const maxCollisionAttempts = 5

// ErrNotFound is returned when a report name does not resolve to a stored file
var ErrNotFound = errors.New("report not found")

var allowedExt = map[string]bool{
	ExtMarkdown: true,
	ExtPDF:      true,
}

// Error is a report persistence failure
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("report %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("report %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Entry describes a stored report
type Entry struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps report files in a single directory.
// Filenames are generated by the store and never derived from user input.
type Store struct {
	dir   string
	now   func() time.Time
	token func() string
}

// NewStore creates a store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		now:   time.Now,
		token: shortToken,
	}
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path of a stored file name
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Create writes content under a fresh name for mode and returns the file name.
// The name is <timestamp>_<mode><ext>, or <timestamp>_<mode>_<token><ext>
// when that name is already taken.
func (s *Store) Create(mode, ext string, content []byte) (string, error) {
	if !allowedExt[ext] {
		return "", &Error{Op: "create", Err: fmt.Errorf("unsupported extension %q", ext)}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &Error{Op: "create", Path: s.dir, Err: err}
	}

	base := s.now().UTC().Format(TimestampLayout) + "_" + mode
	name := base + ext
	for attempt := 0; attempt < maxCollisionAttempts; attempt++ {
		if attempt > 0 {
			name = base + "_" + s.token() + ext
		}
		err := s.writeExclusive(name, content)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", &Error{Op: "write", Path: s.Path(name), Err: err}
		}
	}
	return "", &Error{Op: "create", Path: s.Path(base + ext), Err: fmt.Errorf("no free name after %d attempts", maxCollisionAttempts)}
}

// WriteCompanion writes a file sharing the base name of an existing report,
// e.g. the PDF next to its markdown. An existing companion is overwritten.
func (s *Store) WriteCompanion(reportName, ext string, content []byte) (string, error) {
	if !allowedExt[ext] {
		return "", &Error{Op: "write", Err: fmt.Errorf("unsupported extension %q", ext)}
	}
	name := strings.TrimSuffix(filepath.Base(reportName), filepath.Ext(reportName)) + ext
	if err := os.WriteFile(s.Path(name), content, 0o644); err != nil {
		return "", &Error{Op: "write", Path: s.Path(name), Err: err}
	}
	return name, nil
}

func (s *Store) writeExclusive(name string, content []byte) error {
	f, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(s.Path(name))
		return err
	}
	return f.Close()
}

// Clean reduces name to a safe basename, or returns ErrNotFound
func Clean(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base != name || base == "/" || base == "." || strings.HasPrefix(base, ".") {
		return "", ErrNotFound
	}
	if !allowedExt[strings.ToLower(filepath.Ext(base))] {
		return "", ErrNotFound
	}
	return base, nil
}

// Open reads a stored report by name. Names that are not plain basenames with
// an allowed extension are reported as ErrNotFound.
func (s *Store) Open(name string) ([]byte, error) {
	clean, err := Clean(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "read", Path: s.Path(clean), Err: err}
	}
	return data, nil
}

// List returns the markdown reports, newest first
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, &Error{Op: "list", Path: s.dir, Err: err}
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ExtMarkdown {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Filename: name, Size: info.Size(), UpdatedAt: info.ModTime().UTC()})
	}

	// timestamp prefix sorts lexically
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Filename > entries[j].Filename
	})
	return entries, nil
}

func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
