package submission

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gradekit/autograde/internal/format"
)

// MaxCodefiles caps how many codefiles one grading directory handles.
const MaxCodefiles = 10

// Extensions a codefile entry may carry. RRmd is a wildcard-only
// pseudo-extension meaning "R or Rmd".
var codefileExts = []string{".R", ".Rmd", ".RRmd", ".sas", ".py"}

// ParseCodefiles validates the comma-separated codefiles config value.
// A wildcard entry like *.RRmd must stand alone.
func ParseCodefiles(value string) ([]string, error) {
	var entries []string
	for _, e := range strings.Split(value, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no codefiles configured")
	}
	wildcards := 0
	for _, e := range entries {
		if IsWildcard(e) {
			wildcards++
		}
		if !hasCodefileExt(e) {
			return nil, fmt.Errorf("codefile %q must end in one of %s",
				e, strings.Join(codefileExts, " "))
		}
	}
	if wildcards > 0 && (wildcards > 1 || len(entries) > 1) {
		return nil, fmt.Errorf("a wildcard codefile entry must stand alone")
	}
	return entries, nil
}

// IsWildcard reports whether a codefiles entry is an extension wildcard.
func IsWildcard(entry string) bool {
	return strings.HasPrefix(entry, "*.")
}

// ExpandWildcard scans dir for submissions matching the wildcard's
// extension and returns the distinct canonical codefile names found,
// sorted, capped at MaxCodefiles. The second return value counts
// submissions skipped as nonconforming or over the cap.
func ExpandWildcard(dir, entry string, spec *format.Spec) ([]string, int, error) {
	wanted := wildcardExts(entry)
	if wanted == nil {
		return nil, 0, fmt.Errorf("unsupported wildcard %q", entry)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("expand %s: %w", entry, err)
	}
	dropped := 0
	seen := map[string]bool{}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		rec := format.Decode(de.Name(), spec)
		if rec.Filename == "" {
			dropped++
			continue
		}
		canon, ok := normalizeExt(rec.Filename, wanted)
		if !ok {
			continue
		}
		seen[canon] = true
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) > MaxCodefiles {
		dropped += len(names) - MaxCodefiles
		names = names[:MaxCodefiles]
	}
	return names, dropped, nil
}

// Students rename extensions freely, so the entry check is
// case-insensitive.
func hasCodefileExt(entry string) bool {
	lower := strings.ToLower(entry)
	for _, ext := range codefileExts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// wildcardExts maps a wildcard entry to the concrete extensions it
// accepts, or nil when the entry is not a supported wildcard.
func wildcardExts(entry string) []string {
	switch entry {
	case "*.RRmd":
		return []string{".R", ".Rmd"}
	case "*.R":
		return []string{".R"}
	case "*.Rmd":
		return []string{".Rmd"}
	case "*.sas":
		return []string{".sas"}
	case "*.py":
		return []string{".py"}
	}
	return nil
}

// normalizeExt matches a canonical filename against the accepted
// extensions case-insensitively and rewrites the extension to its
// canonical casing.
func normalizeExt(filename string, wanted []string) (string, bool) {
	ext := format.Ext(filename)
	for _, w := range wanted {
		if strings.EqualFold(ext, w) {
			return filename[:len(filename)-len(ext)] + w, true
		}
	}
	return "", false
}
