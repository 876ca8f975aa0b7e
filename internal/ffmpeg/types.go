package ffmpeg

import "io"

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	OutTime float64
	Speed   string
	Done    bool
}

// ProgressFunc is called for every progress block ffmpeg reports.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
	// Feed, when set, streams data to ffmpeg's stdin. Stdin is closed when it returns.
	Feed func(w io.Writer) error
}
