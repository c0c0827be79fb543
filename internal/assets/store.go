package assets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrInvalidType: the upload is not a spreadsheet. Checked before any byte
// is written.
var ErrInvalidType = errors.New("unsupported file type")

var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

var spreadsheetMIMEs = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel.sheet.macroEnabled.12":                    true,
	"application/vnd.ms-excel":                                          true,
}

// StoredFile describes one committed upload.
type StoredFile struct {
	OriginalName string `json:"originalName"`
	Name         string `json:"fileName"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	Backup       string `json:"backup,omitempty"`
}

// Store keeps uploaded model workbooks under Dir, at most two generations
// per base name: the current file and one backup.
type Store struct {
	Dir        string
	PublicPath string
	Log        logrus.FieldLogger
}

// NewStore creates the upload directory if needed. Explicit so directory
// creation happens at startup, not as an import-time effect.
func NewStore(dir, publicPath string, log logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &Store{Dir: dir, PublicPath: publicPath, Log: log}, nil
}

// SaveSpreadsheet validates and persists one upload, retiring stale
// generations. The new file lands under {epochMillis}_{hex16}_{base} via a
// temp-file-then-rename commit, so a half-written upload is never visible
// under its final name.
func (s *Store) SaveSpreadsheet(originalName, contentType string, r io.Reader) (*StoredFile, error) {
	if !Spreadsheet(originalName, contentType) {
		return nil, ErrInvalidType
	}

	base := SanitizeBaseName(originalName)
	name := fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), randomHex(8), base)

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	// Retention before commit: the newest pre-existing generation stays as
	// backup, everything older goes. Deletion is best-effort.
	backup := ""
	for i, g := range s.generations(base) {
		if i == 0 {
			backup = g
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, g)); err != nil {
			s.Log.WithError(err).WithField("file", g).Warn("stale generation not removed")
		}
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	return &StoredFile{
		OriginalName: originalName,
		Name:         name,
		Size:         size,
		Path:         path.Join(s.PublicPath, name),
		Backup:       backup,
	}, nil
}

// Resolve maps a public asset URL to its on-disk path. Only the last path
// element is honored, so stored URLs can't escape the upload dir.
func (s *Store) Resolve(url string) (string, bool) {
	name := path.Base(url)
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	p := filepath.Join(s.Dir, name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}

// generations lists stored files for base, newest first by the numeric
// timestamp prefix. A missing or non-numeric prefix sorts oldest.
func (s *Store) generations(base string) []string {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		s.Log.WithError(err).Warn("upload dir scan failed")
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), "_"+base) {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return tsPrefix(names[i]) > tsPrefix(names[j])
	})
	return names
}

func tsPrefix(name string) int64 {
	head, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Spreadsheet reports whether the upload looks like an Excel workbook, by
// extension or declared MIME type.
func Spreadsheet(name, contentType string) bool {
	if spreadsheetExts[strings.ToLower(filepath.Ext(name))] {
		return true
	}
	return spreadsheetMIMEs[strings.ToLower(contentType)]
}

// SanitizeBaseName replaces disallowed characters with '_' and collapses
// repeats.
func SanitizeBaseName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
