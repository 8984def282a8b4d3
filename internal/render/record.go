package render

import (
	"github.com/javiermolinar/dayplan/internal/dateutil"
	"github.com/javiermolinar/dayplan/internal/scheduler"
)

// Record is the flat, serializable form of a block.
type Record struct {
	Kind    scheduler.Kind `json:"kind" yaml:"kind"`
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Start   string         `json:"start" yaml:"start"`
	End     string         `json:"end" yaml:"end"`
	Minutes int            `json:"minutes" yaml:"minutes"`
	Past    bool           `json:"past" yaml:"past"`
	TagID   *int64         `json:"tagId,omitempty" yaml:"tagId,omitempty"`

	TaskID          int64 `json:"taskId,omitempty" yaml:"taskId,omitempty"`
	Active          bool  `json:"active,omitempty" yaml:"active,omitempty"`
	Completed       bool  `json:"completed,omitempty" yaml:"completed,omitempty"`
	Split           bool  `json:"split,omitempty" yaml:"split,omitempty"`
	Index           int   `json:"index,omitempty" yaml:"index,omitempty"`
	ContinuesBefore bool  `json:"continuesBefore,omitempty" yaml:"continuesBefore,omitempty"`
	ContinuesAfter  bool  `json:"continuesAfter,omitempty" yaml:"continuesAfter,omitempty"`
	PausedRemaining bool  `json:"pausedRemaining,omitempty" yaml:"pausedRemaining,omitempty"`

	EventID      int64 `json:"eventId,omitempty" yaml:"eventId,omitempty"`
	Column       int   `json:"column,omitempty" yaml:"column,omitempty"`
	TotalColumns int   `json:"totalColumns,omitempty" yaml:"totalColumns,omitempty"`
}

// DayRecord is one scheduled day in serializable form.
type DayRecord struct {
	Date   dateutil.Date `json:"date" yaml:"date"`
	Now    string        `json:"now,omitempty" yaml:"now,omitempty"`
	Blocks []Record      `json:"blocks" yaml:"blocks"`
}

// NewDayRecord converts the blocks of date. Now is set only for today.
func NewDayRecord(blocks []scheduler.Block, opts Options) DayRecord {
	day := DayRecord{Date: opts.Date, Blocks: Records(blocks)}
	if opts.Date == opts.Today {
		day.Now = dateutil.MinutesToTime(opts.Now)
	}
	return day
}

// Records converts blocks to records, keeping their order.
func Records(blocks []scheduler.Block) []Record {
	out := make([]Record, 0, len(blocks))
	for _, blk := range blocks {
		base := blk.Base()
		r := Record{
			Kind:    blk.Kind(),
			ID:      base.ID,
			Name:    base.Name,
			Start:   dateutil.MinutesToTime(base.Start),
			End:     dateutil.MinutesToTime(base.End),
			Minutes: base.Duration(),
			Past:    base.Past,
			TagID:   base.TagID,
		}
		switch b := blk.(type) {
		case scheduler.TaskBlock:
			r.TaskID = b.TaskID
			r.Active = b.Active
			r.Completed = b.Completed
			r.Split = b.Split
			r.Index = b.Index
			r.ContinuesBefore = b.ContinuesBefore
			r.ContinuesAfter = b.ContinuesAfter
			r.PausedRemaining = b.PausedRemaining
		case scheduler.EventBlock:
			r.EventID = b.EventID
			r.Column = b.Column
			r.TotalColumns = b.TotalColumns
		case scheduler.PauseBlock:
			r.TaskID = b.TaskID
		}
		out = append(out, r)
	}
	return out
}
