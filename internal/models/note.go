// Package models defines the domain types for update-notes.
package models

import "time"

// DailyNote is a daily journal file discovered in the input directory.
// The date is parsed from the file name (YYYY-MM-DD.md).
type DailyNote struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// DateString returns the note's date in YYYY-MM-DD form, matching the
// digits in the file name.
func (n DailyNote) DateString() string {
	return n.Date.Format("2006-01-02")
}

// NoteOutcome records what happened to one daily note during a run.
type NoteOutcome struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	Relocated bool   `json:"relocated"`
}
