// Package extract is the boundary collaborator that identifies, renames, and
// unpacks the quarterly ZIP archives. It contains no denormalization logic.
package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fedscope-etl/internal/dataset"
	"github.com/fedscope-etl/internal/debug"
)

// IdentifyPeriod determines a ZIP archive's quarter by examining its member
// names. Bulk downloads arrive UUID-named, so the FACTDATA member inside is
// the only reliable signal.
func IdentifyPeriod(zipPath string) (dataset.Key, bool, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return dataset.Key{}, false, fmt.Errorf("failed to open %s: %w", zipPath, err)
	}
	defer zr.Close()

	// Prefer FACTDATA members, then any member with a recognizable period.
	for _, f := range zr.File {
		if strings.HasPrefix(strings.ToUpper(filepath.Base(f.Name)), "FACTDATA") {
			if key, ok := dataset.PeriodFromName(f.Name); ok {
				return key, true, nil
			}
		}
	}
	for _, f := range zr.File {
		if key, ok := dataset.PeriodFromName(f.Name); ok {
			return key, true, nil
		}
	}
	return dataset.Key{}, false, nil
}

// ExtractAll renames recognizable archives in rawDir to their proper
// FedScope_Employment_<Quarter>_<Year>.zip names and extracts each into its
// own directory under extractedDir. Already-extracted quarters are skipped.
// Returns the number of quarters extracted.
func ExtractAll(rawDir, extractedDir string, localDebug bool) (int, error) {
	if err := os.MkdirAll(extractedDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create extracted directory: %w", err)
	}

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read raw directory: %w", err)
	}

	extracted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".zip") {
			continue
		}
		zipPath := filepath.Join(rawDir, entry.Name())

		key, ok, err := IdentifyPeriod(zipPath)
		if err != nil {
			debug.Output(localDebug, "error examining %s: %v", entry.Name(), err)
			continue
		}
		if !ok {
			debug.Output(localDebug, "could not identify period for %s", entry.Name())
			continue
		}

		// Rename UUID-named downloads to the canonical archive name.
		properName := fmt.Sprintf("FedScope_Employment_%s_%d.zip", key.Quarter, key.Year)
		if entry.Name() != properName {
			properPath := filepath.Join(rawDir, properName)
			if _, err := os.Stat(properPath); err == nil {
				debug.Output(localDebug, "duplicate archive for %s, removing %s", key, entry.Name())
				os.Remove(zipPath)
				continue
			}
			if err := os.Rename(zipPath, properPath); err != nil {
				return extracted, fmt.Errorf("failed to rename %s: %w", entry.Name(), err)
			}
			debug.Output(localDebug, "renamed %s to %s", entry.Name(), properName)
			zipPath = properPath
		}

		destDir := filepath.Join(extractedDir, fmt.Sprintf("FedScope_Employment_%s_%d", key.Quarter, key.Year))
		if _, err := os.Stat(destDir); err == nil {
			debug.Output(localDebug, "already extracted: %s", destDir)
			continue
		}

		if err := extractArchive(zipPath, destDir); err != nil {
			return extracted, fmt.Errorf("failed to extract %s: %w", filepath.Base(zipPath), err)
		}
		debug.Output(localDebug, "extracted %s", destDir)
		extracted++
	}

	return extracted, nil
}

// extractArchive unpacks one ZIP into destDir, rejecting member paths that
// would escape it.
func extractArchive(zipPath, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive member %q escapes destination", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := copyMember(f, target); err != nil {
			return err
		}
	}
	return nil
}

func copyMember(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
