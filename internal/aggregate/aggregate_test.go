package aggregate

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/HiroshiOkada/update-notes/internal/storage"
)

func testEngine(t *testing.T) (*Engine, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, logger), store
}

func fixedClock(e *Engine, day string) {
	now, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	e.now = func() time.Time { return now }
}

func TestRun_TodayExclusion(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-06-15")

	_ = store.Write("in/2024-06-14.md", []byte("# 日記\n昨日の記録\n"))
	_ = store.Write("in/2024-06-15.md", []byte("# 日記\n今日の記録\n"))
	_ = store.Write("in/2024-06-16.md", []byte("# 日記\n明日の記録\n"))

	report, err := e.Run("in", "out")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Found != 3 || report.SkippedToday != 1 || report.Processed != 2 {
		t.Errorf("report = %+v, want found=3 skipped_today=1 processed=2", report)
	}

	// Yesterday and tomorrow are archived; today stays in place, unread.
	if !store.Exists("in/oldfiles/2024-06-14.md") || !store.Exists("in/oldfiles/2024-06-16.md") {
		t.Error("processed notes should be in the archive")
	}
	if !store.Exists("in/2024-06-15.md") {
		t.Error("today's note must remain in the input directory")
	}
	if store.Exists("in/oldfiles/2024-06-15.md") {
		t.Error("today's note must not be archived")
	}

	got, err := store.Read("out/日記.md")
	if err != nil {
		t.Fatalf("Read output: %v", err)
	}
	if strings.Contains(string(got), "今日の記録") {
		t.Error("today's content must not reach the output")
	}
	if !strings.Contains(string(got), "昨日の記録") || !strings.Contains(string(got), "明日の記録") {
		t.Errorf("output missing processed content: %q", got)
	}
}

func TestRun_MergeIsChronologicalAndAdditive(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-07-01")

	// Written out of date order on purpose; the run must sort ascending.
	_ = store.Write("in/2024-01-02.md", []byte("# 話題\n二日目\n"))
	_ = store.Write("in/2024-01-01.md", []byte("# 話題\n一日目\n\n# 別件\nメモ\n"))

	if _, err := e.Run("in", "out"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := store.Read("out/話題.md")
	if err != nil {
		t.Fatalf("Read output: %v", err)
	}
	want := "# 話題\n\n" +
		"## 2024-01-01\n\n一日目\n\n\n" +
		"## 2024-01-02\n\n二日目\n\n"
	if string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if !store.Exists("out/別件.md") {
		t.Error("second heading should get its own file")
	}
}

func TestRun_InvalidDateSkippedNotFatal(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-07-01")

	_ = store.Write("in/2024-13-01.md", []byte("# x\nずれた月\n"))
	_ = store.Write("in/2024-02-30.md", []byte("# x\nない日\n"))
	_ = store.Write("in/2024-02-29.md", []byte("# x\nうるう日\n"))

	report, err := e.Run("in", "out")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.SkippedInvalid != 2 {
		t.Errorf("skipped_invalid = %d, want 2", report.SkippedInvalid)
	}
	if report.Processed != 1 {
		t.Errorf("processed = %d, want 1", report.Processed)
	}
	if !store.Exists("in/2024-13-01.md") || !store.Exists("in/2024-02-30.md") {
		t.Error("invalid-date files must stay where they are")
	}
	if !store.Exists("in/oldfiles/2024-02-29.md") {
		t.Error("the leap-day note is valid and should be archived")
	}
}

func TestRun_NonMatchingFilesIgnored(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-07-01")

	_ = store.Write("in/readme.md", []byte("# について\n説明\n"))
	_ = store.Write("in/2024-06-30.txt", []byte("not markdown"))
	_ = store.Write("in/2024-06-30.md", []byte("# 日記\n記録\n"))

	report, err := e.Run("in", "out")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Found != 1 || report.Processed != 1 {
		t.Errorf("report = %+v, want found=1 processed=1", report)
	}
	if !store.Exists("in/readme.md") || !store.Exists("in/2024-06-30.txt") {
		t.Error("non-matching files must be untouched")
	}
}

func TestRun_ImageCopyWithExtensionProbe(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-07-01")

	_ = store.Write("in/2024-06-01.md", []byte("# 写真\n![[photo]]\n![説明](images/chart.png?v=2#top)\n"))
	_ = store.Write("in/photo.jpg", []byte("jpeg"))
	_ = store.Write("in/images/chart.png", []byte("png"))

	report, err := e.Run("in", "out")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ImagesCopied != 2 {
		t.Errorf("images_copied = %d, want 2", report.ImagesCopied)
	}
	if !store.Exists("out/photo.jpg") {
		t.Error("extension-less wiki embed should be copied via probing")
	}
	if !store.Exists("out/chart.png") {
		t.Error("inline reference should be copied flat, query/fragment stripped")
	}
}

func TestRun_BlankSectionsNeverReachOutput(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-07-01")

	_ = store.Write("in/2024-06-01.md", []byte("# 空\n\n\n# 中身\nテキスト\n"))

	if _, err := e.Run("in", "out"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.Exists("out/空.md") {
		t.Error("heading with only blank lines must not produce output")
	}
	if !store.Exists("out/中身.md") {
		t.Error("non-blank heading must produce output")
	}
}

func TestRun_AppendsAcrossRuns(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-07-01")

	_ = store.Write("in/2024-06-01.md", []byte("# 日記\n最初\n"))
	if _, err := e.Run("in", "out"); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	_ = store.Write("in/2024-06-02.md", []byte("# 日記\n続き\n"))
	if _, err := e.Run("in", "out"); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	got, _ := store.Read("out/日記.md")
	text := string(got)
	if !strings.Contains(text, "最初") || !strings.Contains(text, "続き") {
		t.Errorf("prior content was discarded: %q", text)
	}
	if strings.Count(text, "# 日記\n") != 1 {
		t.Errorf("heading should occur once across appends: %q", text)
	}
}

func TestRun_ReportNoteOutcomes(t *testing.T) {
	e, store := testEngine(t)
	fixedClock(e, "2024-07-01")

	_ = store.Write("in/2024-06-01.md", []byte("# a\nx\n"))
	_ = store.Write("in/2024-06-02.md", []byte("# a\ny\n"))

	report, err := e.Run("in", "out")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(report.Notes))
	}
	if report.Notes[0].Name != "2024-06-01.md" || report.Notes[0].Date != "2024-06-01" {
		t.Errorf("first outcome = %+v", report.Notes[0])
	}
	for _, n := range report.Notes {
		if !n.Relocated {
			t.Errorf("note %s should be relocated", n.Name)
		}
	}
}

func TestRun_MissingInputDirFails(t *testing.T) {
	e, _ := testEngine(t)
	fixedClock(e, "2024-07-01")
	if _, err := e.Run("nope", "out"); err == nil {
		t.Error("listing a missing input directory should fail the run")
	}
}
