package engine

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Kondomino/kondo-movie-sub001/internal/system"
)

// Stats тайминги этапов одной сборки.
type Stats struct {
	Prepare time.Duration
	Build   time.Duration
	Audio   time.Duration
	Render  time.Duration
	Total   time.Duration
	Frames  int
}

// EffectiveFPS кадров в секунду за всю сборку.
func (s Stats) EffectiveFPS() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Total.Seconds()
}

// WriteReport печатает отчет о производительности.
func WriteReport(w io.Writer, build string, res *Result, host system.HostStats) {
	s := res.Stats
	fmt.Fprintf(w,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Media (CPU): %.2fs\n"+
			"Timeline: %.2fs\n"+
			"Audio: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Host: %s\n"+
			"----------------------------\n",
		build, s.Total.Seconds(), s.Prepare.Seconds(), s.Build.Seconds(),
		s.Audio.Seconds(), s.Render.Seconds(), s.EffectiveFPS(), host,
	)
}

// AppendBenchmark дописывает строку отчета в benchmark.log.
func AppendBenchmark(path, build string, res *Result, host system.HostStats, at time.Time) error {
	s := res.Stats
	entry := fmt.Sprintf("[%s] Build: %s | Output: %s | Media: %d | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f | %s\n",
		at.Format("2006-01-02 15:04:05"),
		build,
		res.OutputFile,
		len(res.UsedMedia),
		s.Frames,
		s.Total.Seconds(),
		s.Render.Seconds(),
		s.EffectiveFPS(),
		host,
	)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
