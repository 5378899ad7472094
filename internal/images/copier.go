// Package images copies locally referenced image files from the input
// directory into the output directory.
package images

import (
	"log/slog"
	"path"
	"sort"

	"github.com/HiroshiOkada/update-notes/internal/storage"
)

// probeExtensions is tried in order when a reference has no extension,
// which is common for Obsidian wiki embeds. First match wins.
var probeExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp"}

// Copy resolves each reference against inputDir and duplicates matches
// into outputDir, flat, named by the reference's final path component.
// References that match nothing are skipped silently; per-copy errors are
// logged and do not stop the remaining copies. Returns the copied count.
func Copy(store storage.Provider, inputDir, outputDir string, refs map[string]struct{}, logger *slog.Logger) int {
	if len(refs) == 0 {
		return 0
	}

	logger.Info("copying referenced image files", slog.Int("references", len(refs)))

	ordered := make([]string, 0, len(refs))
	for ref := range refs {
		ordered = append(ordered, ref)
	}
	sort.Strings(ordered)

	copied := 0
	for _, ref := range ordered {
		src := path.Join(inputDir, ref)
		if store.Exists(src) {
			dst := path.Join(outputDir, path.Base(ref))
			if err := store.Copy(src, dst); err != nil {
				logger.Error("image copy failed",
					slog.String("ref", ref), slog.String("error", err.Error()))
				continue
			}
			copied++
			continue
		}

		if path.Ext(ref) != "" {
			continue
		}
		for _, ext := range probeExtensions {
			if !store.Exists(src + ext) {
				continue
			}
			dst := path.Join(outputDir, path.Base(ref)+ext)
			if err := store.Copy(src+ext, dst); err != nil {
				logger.Error("image copy failed",
					slog.String("ref", ref+ext), slog.String("error", err.Error()))
			} else {
				copied++
			}
			break
		}
	}

	logger.Info("image copy finished", slog.Int("copied", copied))
	return copied
}
