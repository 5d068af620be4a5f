package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteAnimeList writes an anime-list document to path. A document without
// an XML root is wrapped in <anime-list>.
func WriteAnimeList(t testing.TB, path, document string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	body := strings.TrimSpace(document)
	if !strings.HasPrefix(body, "<anime-list") && !strings.HasPrefix(body, "<?xml") {
		body = "<anime-list>\n" + body + "\n</anime-list>\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
