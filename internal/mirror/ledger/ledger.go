// Package ledger persists the path-to-checksum mapping that drives change
// detection. The on-disk format is one entry per line, `<md5-hex> <relpath>`,
// sorted by path. A legacy reversed order (`<relpath> <md5-hex>`) still parses.
package ledger

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/boxmirror/boxmirror/internal/utils"
)

// DefaultFilename is the ledger's filename at the watched root.
const DefaultFilename = "checksums.txt"

// hashBlockSize is the read block used when streaming a file through MD5.
const hashBlockSize = 4 * 1024

// ParseError reports a structurally invalid ledger line.
type ParseError struct {
	Path string
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ledger parse %s:%d: invalid entry %q", e.Path, e.Line, e.Text)
}

// Load reads the ledger at path into a relpath-to-hash map. A missing file is
// not an error and yields an empty map. A malformed line aborts the load so
// a broken ledger never produces a silently truncated mapping.
func Load(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	checksums := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		relPath, hash, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Path: path, Line: lineNo, Text: line}
		}
		checksums[relPath] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	return checksums, nil
}

// parseLine accepts the preferred `<hash> <path>` order and the legacy
// `<path> <hash>` order. The preferred order is detected by the first
// whitespace-delimited token being 32 hex chars; otherwise the last token is
// taken as the hash and the remainder, trimmed, as the path.
func parseLine(line string) (relPath, hash string, err error) {
	if first, rest, ok := strings.Cut(line, " "); ok && isHexDigest(first) {
		return rest, strings.ToLower(first), nil
	}

	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return "", "", fmt.Errorf("want two fields, got %d", len(tokens))
	}
	last := tokens[len(tokens)-1]
	if !isHexDigest(last) {
		return "", "", fmt.Errorf("no digest field in %q", line)
	}
	relPath = strings.TrimSpace(line[:strings.LastIndex(line, last)])
	return relPath, strings.ToLower(last), nil
}

func isHexDigest(s string) bool {
	if len(s) != md5.Size*2 {
		return false
	}
	_, err := hex.DecodeString(strings.ToLower(s))
	return err == nil
}

// Save writes the full mapping to path, one `<hash> <path>` line per entry,
// sorted by path for deterministic output. Prior content is fully replaced.
func Save(path string, checksums map[string]string) error {
	if err := utils.EnsureParent(path); err != nil {
		return fmt.Errorf("ensure ledger dir: %w", err)
	}

	paths := make([]string, 0, len(checksums))
	for relPath := range checksums {
		paths = append(paths, relPath)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, relPath := range paths {
		sb.WriteString(checksums[relPath])
		sb.WriteByte(' ')
		sb.WriteString(relPath)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// HashFile streams the file through MD5 in fixed-size blocks and returns the
// lowercase hex digest. The file is never held in memory at once.
func HashFile(absPath string) (string, error) {
	file, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(hash, file, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", absPath, err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// HashBytes returns the lowercase hex MD5 of data. Used when content is
// already in memory, e.g. a downloaded remote payload.
func HashBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
