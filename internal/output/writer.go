// Package output materializes the per-heading accumulation into topic
// files, appending to files left by earlier runs instead of overwriting.
package output

import (
	"log/slog"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/HiroshiOkada/update-notes/internal/parser"
	"github.com/HiroshiOkada/update-notes/internal/storage"
)

// NoteExtension is appended to every derived topic file name.
const NoteExtension = ".md"

// unsafeChars replaces characters that are not portable in file names.
var unsafeChars = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	"*", "_",
	"?", "_",
	":", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Filename derives the topic file name for a heading: the heading marker
// and surrounding whitespace are stripped, each forbidden character maps
// to an underscore (never collapsed), and the note extension is appended.
func Filename(heading string) string {
	text := strings.TrimSpace(strings.TrimLeft(heading, "#"))
	return unsafeChars.Replace(text) + NoteExtension
}

// Write serializes each non-empty heading to its own file under outputDir.
//
// A fresh file holds the heading, a blank line, then the accumulated lines.
// An existing file is appended to: when the literal heading line (followed
// by a line break) already occurs in the trimmed existing text, only the
// new content is added; otherwise the heading is written again first. The
// check is deliberately a literal substring match, so a heading differing
// by trailing whitespace starts a second block.
//
// Per-file write errors are logged and the remaining headings are still
// written. Returns the number of files written.
func Write(store storage.Provider, contents map[string][]string, outputDir string, logger *slog.Logger) int {
	if err := store.MkdirAll(outputDir); err != nil {
		logger.Error("create output directory failed",
			slog.String("dir", outputDir), slog.String("error", err.Error()))
		return 0
	}

	headings := make([]string, 0, len(contents))
	for h := range contents {
		headings = append(headings, h)
	}
	sort.Strings(headings)

	written := 0
	for _, heading := range headings {
		lines := contents[heading]
		if parser.IsBlank(lines) {
			continue
		}

		name := Filename(heading)
		dst := path.Join(outputDir, name)
		body := strings.Join(lines, "\n")

		if !store.Exists(dst) {
			out := heading + "\n\n" + body
			if err := store.Write(dst, []byte(out)); err != nil {
				logger.Error("write topic file failed",
					slog.String("file", name), slog.String("error", err.Error()))
				continue
			}
			logger.Info("created topic file",
				slog.String("heading", heading), slog.String("file", name))
			written++
			continue
		}

		data, err := store.Read(dst)
		if err != nil {
			logger.Error("read existing topic file failed",
				slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		existing := strings.TrimRightFunc(string(data), unicode.IsSpace)

		var out string
		if strings.Contains(existing, heading+"\n") {
			out = existing + "\n\n" + body
		} else {
			out = existing + "\n\n" + heading + "\n\n" + body
		}
		if err := store.Write(dst, []byte(out)); err != nil {
			logger.Error("write topic file failed",
				slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		logger.Info("appended to topic file",
			slog.String("heading", heading), slog.String("file", name))
		written++
	}

	return written
}
