package ticket

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SweepArtifacts deletes rendered files older than retentionDays from dir.
// Files belonging to keepTicket are always spared. Returns the number of
// files removed; individual removal errors are skipped so a half-finished
// sweep can complete on the next run.
func SweepArtifacts(dir string, retentionDays int, keepTicket string) (int, error) {
	if dir == "" || retentionDays <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if keepTicket != "" && strings.HasPrefix(entry.Name(), keepTicket) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}
