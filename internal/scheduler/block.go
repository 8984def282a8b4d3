package scheduler

// Kind identifies the variant of a Block.
type Kind string

const (
	KindTask  Kind = "task"
	KindEvent Kind = "event"
	KindPause Kind = "pause"
)

// Block is one positioned entry of a day timeline. The set of variants is
// closed: TaskBlock, EventBlock and PauseBlock.
type Block interface {
	Kind() Kind
	Base() BlockBase
	isBlock()
}

// BlockBase holds the fields every block carries.
type BlockBase struct {
	ID    string
	Name  string
	Start int
	End   int
	Past  bool
	TagID *int64
}

// Base returns the shared block fields.
func (b BlockBase) Base() BlockBase { return b }

// Duration returns the block length in minutes.
func (b BlockBase) Duration() int { return max(0, b.End-b.Start) }

// TaskBlock is one fragment of a task, either planned or already worked.
type TaskBlock struct {
	BlockBase
	TaskID          int64
	Active          bool
	Completed       bool
	Split           bool
	Index           int
	ContinuesBefore bool
	ContinuesAfter  bool
	// PausedRemaining marks work queued behind the open pause of the first task.
	PausedRemaining bool
}

// EventBlock is a fixed event with its side-by-side column.
type EventBlock struct {
	BlockBase
	EventID      int64
	Column       int
	TotalColumns int
}

// PauseBlock shows time the first task spent paused today.
type PauseBlock struct {
	BlockBase
	TaskID int64
}

func (TaskBlock) Kind() Kind  { return KindTask }
func (EventBlock) Kind() Kind { return KindEvent }
func (PauseBlock) Kind() Kind { return KindPause }

func (TaskBlock) isBlock()  {}
func (EventBlock) isBlock() {}
func (PauseBlock) isBlock() {}
