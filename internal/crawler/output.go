package crawler

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kennygrant/sanitize"
	"golang.org/x/crypto/sha3"
)

// Output layout below the crawl output directory.
const (
	TextDirName      = "text"
	ProcessedDirName = "processed"

	textFileExt = ".txt"

	// maxFileNameLen keeps generated names below the 255 byte limit of
	// common filesystems, leaving room for the extension.
	maxFileNameLen = 200
)

// DomainDir returns the directory extracted text of localDomain is
// written to: {outputDir}/text/{domain}. The domain is sanitized so a
// port separator cannot produce an invalid path on any platform.
func DomainDir(outputDir, localDomain string) string {
	return filepath.Join(outputDir, TextDirName, sanitize.BaseName(localDomain))
}

// TextPath returns the file the text of pageURL is written to.
//
// The name is the URL without its scheme, with "/" replaced by "_" and
// then sanitized into a portable base name. Overlong names are cut and
// suffixed with a digest of the full URL so distinct URLs stay distinct.
// Two URLs differing only in characters the sanitizer removes map to the
// same file; the later page overwrites the earlier one.
func TextPath(outputDir, localDomain, pageURL string) (string, error) {
	rest := pageURL
	if _, after, ok := strings.Cut(pageURL, "://"); ok {
		rest = after
	}
	name := sanitize.BaseName(strings.ReplaceAll(rest, "/", "_"))
	if strings.Trim(name, "-") == "" {
		return "", fmt.Errorf("%w: %q", ErrPathSanitization, pageURL)
	}
	if len(name) > maxFileNameLen {
		sum := sha3.Sum256([]byte(pageURL))
		name = name[:maxFileNameLen-17] + "-" + hex.EncodeToString(sum[:8])
	}
	return filepath.Join(DomainDir(outputDir, localDomain), name+textFileExt), nil
}

// ensureDir creates dir and its parents. A directory created
// concurrently by another worker counts as success.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
