package common

// Progress receives increments from long-running loops.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
}

// NopProgress discards progress updates.
type NopProgress struct{}

// Add implements Progress.
func (NopProgress) Add(int) error { return nil }
