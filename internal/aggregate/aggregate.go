// Package aggregate drives one consolidation run: it discovers daily
// notes, folds their sections into a per-heading accumulation, archives
// the processed files, and triggers image copying and output writing.
package aggregate

import (
	"log/slog"
	"path"
	"regexp"
	"sort"
	"time"

	"github.com/HiroshiOkada/update-notes/internal/images"
	"github.com/HiroshiOkada/update-notes/internal/models"
	"github.com/HiroshiOkada/update-notes/internal/output"
	"github.com/HiroshiOkada/update-notes/internal/parser"
	"github.com/HiroshiOkada/update-notes/internal/storage"
)

// ArchiveDirName is the subdirectory of the input directory that receives
// processed notes.
const ArchiveDirName = "oldfiles"

var dailyNoteRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})\.md$`)

// Report summarizes one run.
type Report struct {
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     time.Time            `json:"finished_at"`
	Found          int                  `json:"found"`
	SkippedToday   int                  `json:"skipped_today"`
	SkippedInvalid int                  `json:"skipped_invalid"`
	Processed      int                  `json:"processed"`
	Relocated      int                  `json:"relocated"`
	LeftInPlace    int                  `json:"left_in_place"`
	ImagesCopied   int                  `json:"images_copied"`
	FilesWritten   int                  `json:"files_written"`
	Notes          []models.NoteOutcome `json:"notes,omitempty"`
}

// Engine runs consolidations against a vault-rooted storage provider.
type Engine struct {
	store  storage.Provider
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Engine. The clock defaults to time.Now.
func New(store storage.Provider, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger, now: time.Now}
}

// Run consolidates every eligible daily note from inputDir into per-heading
// topic files under outputDir (both relative to the vault root).
//
// Notes dated today are presumed still being written and stay untouched.
// All recoverable conditions (invalid dates, unreadable files, failed
// relocations, failed copies) are logged and skipped; the run itself only
// fails when the input directory cannot be listed.
func (e *Engine) Run(inputDir, outputDir string) (*Report, error) {
	report := &Report{StartedAt: e.now()}

	e.logger.Info("processing daily notes",
		slog.String("input_dir", inputDir), slog.String("output_dir", outputDir))

	notes, skippedInvalid, err := e.discover(inputDir)
	if err != nil {
		return nil, err
	}
	report.SkippedInvalid = skippedInvalid

	today := e.now()
	eligible := notes[:0]
	for _, n := range notes {
		if sameDay(n.Date, today) {
			e.logger.Info("skipping today's note, still in progress", slog.String("name", n.Name))
			report.SkippedToday++
			continue
		}
		eligible = append(eligible, n)
	}
	report.Found = report.SkippedToday + len(eligible)

	e.logger.Info("found daily note files",
		slog.Int("found", report.Found), slog.Int("skipped_today", report.SkippedToday))

	// Accumulation and reference set live only for this run.
	accumulated := make(map[string][]string)
	refs := make(map[string]struct{})

	for _, note := range eligible {
		src := path.Join(inputDir, note.Name)

		data, err := e.store.Read(src)
		if err != nil {
			e.logger.Error("read failed, note left untouched",
				slog.String("name", note.Name), slog.String("error", err.Error()))
			continue
		}
		e.logger.Info("processing", slog.String("name", note.Name))

		res := parser.Split(string(data), note.DateString())
		for heading, lines := range res.Sections {
			if parser.IsBlank(lines) {
				continue
			}
			accumulated[heading] = append(accumulated[heading], lines...)
		}
		for ref := range res.ImageRefs {
			refs[ref] = struct{}{}
		}

		outcome := models.NoteOutcome{Name: note.Name, Date: note.DateString()}
		dst := path.Join(inputDir, ArchiveDirName, note.Name)
		if moved := e.store.Relocate(src, dst); moved.Moved {
			e.logger.Info("moved to archive", slog.String("name", note.Name))
			outcome.Relocated = true
			report.Relocated++
		} else {
			// Content merged above is kept; only the file stays put.
			e.logger.Error("move failed, file kept in original location",
				slog.String("name", note.Name), slog.String("error", moved.Reason.Error()))
			report.LeftInPlace++
		}
		report.Notes = append(report.Notes, outcome)
		report.Processed++
	}

	report.ImagesCopied = images.Copy(e.store, inputDir, outputDir, refs, e.logger)
	report.FilesWritten = output.Write(e.store, accumulated, outputDir, e.logger)
	report.FinishedAt = e.now()

	e.logger.Info("run finished",
		slog.Int("found", report.Found),
		slog.Int("skipped_today", report.SkippedToday),
		slog.Int("skipped_invalid", report.SkippedInvalid),
		slog.Int("processed", report.Processed),
		slog.Int("images_copied", report.ImagesCopied),
		slog.Int("files_written", report.FilesWritten))

	return report, nil
}

// discover lists inputDir and keeps the files whose name parses as a valid
// calendar date, sorted ascending by date (by name between equal dates).
func (e *Engine) discover(inputDir string) ([]models.DailyNote, int, error) {
	names, err := e.store.ListDir(inputDir)
	if err != nil {
		return nil, 0, err
	}

	var notes []models.DailyNote
	skipped := 0
	for _, name := range names {
		m := dailyNoteRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
		if err != nil {
			e.logger.Warn("skipping file with invalid date", slog.String("name", name))
			skipped++
			continue
		}
		notes = append(notes, models.DailyNote{Name: name, Date: date})
	}

	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].Date.Equal(notes[j].Date) {
			return notes[i].Date.Before(notes[j].Date)
		}
		return notes[i].Name < notes[j].Name
	})

	return notes, skipped, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
