// Package nsswitch edits /etc/nsswitch.conf as a list of databases and
// their sources. Lines that are not touched are written back byte for byte.
package nsswitch

import (
	"fmt"
	"os"
	"strings"

	"github.com/confmode/confmode/pkg/util"
)

// DefaultPath is the system name service switch configuration.
const DefaultPath = "/etc/nsswitch.conf"

// Sources added for RADIUS user mapping.
const (
	MapUID  = "mapuid"
	MapName = "mapname"
)

// File is a parsed nsswitch.conf.
type File struct {
	lines []*line
}

type line struct {
	raw      string
	database string
	sep      string   // whitespace after "database:"
	sources  []string // sources and [STATUS=action] tokens in order
	trailer  string   // whitespace plus comment after the sources
	entry    bool
	dirty    bool
}

// Parse reads the text of an nsswitch.conf file.
func Parse(data []byte) *File {
	text := strings.TrimSuffix(string(data), "\n")
	f := &File{}
	if text == "" {
		return f
	}
	for _, raw := range strings.Split(text, "\n") {
		f.lines = append(f.lines, parseLine(raw))
	}
	return f
}

func parseLine(raw string) *line {
	l := &line{raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return l
	}
	idx := strings.Index(raw, ":")
	if idx <= 0 || strings.ContainsAny(raw[:idx], " \t") {
		return l
	}

	l.entry = true
	l.database = raw[:idx]
	rest := raw[idx+1:]
	body := strings.TrimLeft(rest, " \t")
	l.sep = rest[:len(rest)-len(body)]

	if ci := strings.Index(body, "#"); ci >= 0 {
		before := body[:ci]
		kept := strings.TrimRight(before, " \t")
		l.trailer = before[len(kept):] + body[ci:]
		body = kept
	}
	l.sources = strings.Fields(body)
	return l
}

func (l *line) String() string {
	if !l.entry || !l.dirty {
		return l.raw
	}
	sep := l.sep
	if sep == "" && len(l.sources) > 0 {
		sep = " "
	}
	return l.database + ":" + sep + strings.Join(l.sources, " ") + l.trailer
}

func (f *File) lookup(database string) *line {
	for _, l := range f.lines {
		if l.entry && l.database == database {
			return l
		}
	}
	return nil
}

// Sources returns the sources of database, or nil when it has no entry. An
// entry without sources yields an empty, non-nil slice.
func (f *File) Sources(database string) []string {
	l := f.lookup(database)
	if l == nil {
		return nil
	}
	return append([]string{}, l.sources...)
}

// SetSources replaces the sources of database and reports whether anything
// changed. A missing database is appended as a new line.
func (f *File) SetSources(database string, sources []string) bool {
	l := f.lookup(database)
	if l == nil {
		f.lines = append(f.lines, &line{
			entry:    true,
			dirty:    true,
			database: database,
			sep:      " ",
			sources:  append([]string(nil), sources...),
		})
		return true
	}
	if equal(l.sources, sources) {
		return false
	}
	l.sources = append([]string(nil), sources...)
	l.dirty = true
	return true
}

// EnableMapping makes RADIUS users resolvable: passwd gets mapuid as its
// first source and mapname as its last, group gets mapname first. Missing
// databases are left alone. Reports whether the file changed.
func (f *File) EnableMapping() bool {
	changed := false
	if src := f.Sources("passwd"); src != nil {
		src = util.RemoveString(util.RemoveString(src, MapUID), MapName)
		src = append(append([]string{MapUID}, src...), MapName)
		changed = f.SetSources("passwd", src) || changed
	}
	if src := f.Sources("group"); src != nil {
		src = append([]string{MapName}, util.RemoveString(src, MapName)...)
		changed = f.SetSources("group", src) || changed
	}
	return changed
}

// DisableMapping removes the sources EnableMapping adds.
func (f *File) DisableMapping() bool {
	changed := false
	if src := f.Sources("passwd"); src != nil {
		src = util.RemoveString(util.RemoveString(src, MapUID), MapName)
		changed = f.SetSources("passwd", src) || changed
	}
	if src := f.Sources("group"); src != nil {
		changed = f.SetSources("group", util.RemoveString(src, MapName)) || changed
	}
	return changed
}

// Bytes serializes the file.
func (f *File) Bytes() []byte {
	var b strings.Builder
	for _, l := range f.lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Load parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data), nil
}

// Save writes the file to path atomically, keeping the mode of an existing
// file (0644 otherwise).
func (f *File) Save(path string) error {
	perm := os.FileMode(0644)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}
	if err := util.WriteFileAtomic(path, f.Bytes(), perm, nil); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
