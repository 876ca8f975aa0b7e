package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kondomino/kondo-movie-sub001/internal/assets"
	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/engine"
	"github.com/Kondomino/kondo-movie-sub001/internal/ffmpeg"
	"github.com/Kondomino/kondo-movie-sub001/internal/logging"
	"github.com/Kondomino/kondo-movie-sub001/internal/source"
	"github.com/Kondomino/kondo-movie-sub001/internal/system"
	"github.com/Kondomino/kondo-movie-sub001/internal/text"
	"github.com/Kondomino/kondo-movie-sub001/internal/tts"
	"github.com/Kondomino/kondo-movie-sub001/internal/video"
)

const mediaDir = "input/media"

var renderOpts struct {
	edl     string
	job     string
	media   []string
	out     string
	speech  string
	music   string
	ttsCmd  string
	workers int
	stats   bool
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Собрать ролик",
	Long: `Собирает ролик по EDL. EDL берется из файла (JSON/YAML) или из Redis: --edl redis:<name>.
Медиа идут в порядке аргументов; папки отдают изображения по имени, PDF по страницам.
Без --media берется самый свежий файл из input/media.`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.edl, "edl", "", "EDL: путь к файлу или redis:<name>")
	f.StringVar(&renderOpts.job, "job", "", "Параметры задачи (YAML): адрес, агент, титры, музыка, озвучка")
	f.StringSliceVar(&renderOpts.media, "media", nil, "Фото, папки или PDF по порядку")
	f.StringVar(&renderOpts.out, "out", "", "Папка результата (по умолчанию из настроек)")
	f.StringVar(&renderOpts.music, "music", "", "Фоновая музыка: файл или папка (берется самый свежий трек)")
	f.StringVar(&renderOpts.speech, "speech", "", "Готовая озвучка вместо синтеза (wav/mp3/pcm)")
	f.StringVar(&renderOpts.ttsCmd, "tts-cmd", "", `Локальный синтезатор, например "espeak-ng --stdout -v {voice} {script}"`)
	f.IntVar(&renderOpts.workers, "workers", 0, "Потоки подготовки медиа (0 - из настроек)")
	f.BoolVar(&renderOpts.stats, "stats", false, "Отчет о производительности в benchmark.log")
	_ = renderCmd.MarkFlagRequired("edl")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := logging.WithComponent("cli")

	if renderOpts.out != "" {
		cfg.OutputDir = renderOpts.out
	}
	if renderOpts.workers > 0 {
		cfg.Workers = renderOpts.workers
	}
	if renderOpts.stats {
		cfg.ShowStats = true
	}
	if cfg.Render.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Render.Timeout)
		defer cancel()
	}

	e, err := loadEDL(ctx, cfg, renderOpts.edl)
	if err != nil {
		return err
	}

	movie := &config.Movie{}
	if renderOpts.job != "" {
		if movie, err = config.LoadMovie(renderOpts.job); err != nil {
			return fmt.Errorf("load job %s: %w", renderOpts.job, err)
		}
	}

	if renderOpts.music != "" {
		track := renderOpts.music
		if fi, err := os.Stat(track); err != nil {
			return err
		} else if fi.IsDir() {
			if track, err = system.FindLatest(track, system.AudioExtensions...); err != nil {
				return err
			}
		}
		fmt.Printf("[*] Музыка: %s\n", filepath.Base(track))
		movie.Music.Enabled = true
		movie.Music.Track = track
	}

	paths := renderOpts.media
	if len(paths) == 0 {
		latest, err := system.FindLatest(mediaDir, system.MediaExtensions...)
		if err != nil {
			return fmt.Errorf("%w. Положите фото или PDF в %s/", err, mediaDir)
		}
		fmt.Printf("[*] Выбран файл: %s\n", latest)
		paths = []string{latest}
	}
	lib, err := source.Collect(paths)
	if err != nil {
		return err
	}
	defer lib.Close()

	media := make([]engine.Still, 0, lib.Len())
	for _, it := range lib.Items() {
		media = append(media, it)
	}

	exec, err := ffmpeg.New(logging.WithComponent("ffmpeg"), 0)
	if err != nil {
		return err
	}
	encoder := system.ResolveEncoder(ctx, exec.Path(), cfg.Render.Encoder)
	if encoder != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoder)
	}

	fetcher, err := assets.NewFetcher(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	speech, format := speechSource(renderOpts.speech, renderOpts.ttsCmd)

	var splitter text.Splitter = text.WordCount{WordsPerLine: cfg.Titles.WordsPerLine}
	if c := text.ParseCommand(cfg.Titles.SplitCommand); c != nil {
		splitter = text.Fallback{Primary: c, Local: splitter, Logger: logging.WithComponent("split")}
	}

	a := engine.New(cfg, engine.Deps{
		Fetcher: fetcher,
		Runner:  exec,
		Backend: video.NewFFmpegBackend(exec, video.EncoderSettings{
			Encoder:      encoder,
			Quality:      cfg.Render.Quality,
			AudioCodec:   cfg.Render.AudioCodec,
			AudioBitrate: cfg.Render.AudioBitrate,
		}, logging.WithComponent("video")),
		Speech:       speech,
		SpeechFormat: format,
		Splitter:     splitter,
		Logger:       logging.NewLogger(),
	})
	a.Progress = progressPrinter()

	fmt.Println("--- [MOVIEMAKER] ---")
	fmt.Printf("[*] EDL: %s | Клипов: %d | FPS: %d | Медиа: %d\n", e.Name, len(e.Clips), e.FPS, len(media))
	fmt.Println("--------------------")

	res, err := a.Assemble(ctx, e, media, movie)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("[!] Сборка отменена")
		}
		return err
	}

	if cfg.ShowStats {
		host, err := system.Snapshot()
		if err != nil {
			logger.Debug().Err(err).Msg("host stats incomplete")
		}
		engine.WriteReport(os.Stdout, cfg.BuildVersion, res, host)
		if err := engine.AppendBenchmark("benchmark.log", cfg.BuildVersion, res, host, time.Now()); err != nil {
			fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
		}
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", res.OutputFile)
	if res.VoiceoverFile != "" {
		fmt.Printf("[+] Озвучка: %s\n", res.VoiceoverFile)
	}
	if res.CaptionsFile != "" {
		fmt.Printf("[+] Субтитры: %s\n", res.CaptionsFile)
	}
	return nil
}

// speechSource выбирает источник озвучки: готовый файл, локальная команда или ничего.
func speechSource(file, command string) (tts.Synthesizer, tts.Format) {
	if file != "" {
		switch strings.ToLower(filepath.Ext(file)) {
		case ".mp3":
			return tts.File{Path: file}, tts.FormatMP3
		case ".pcm", ".raw":
			return tts.File{Path: file}, tts.FormatPCM
		}
		return tts.File{Path: file}, tts.FormatWAV
	}
	if f := strings.Fields(command); len(f) > 0 {
		return tts.Command{Name: f[0], Args: f[1:]}, tts.FormatWAV
	}
	return tts.Disabled{}, tts.FormatPCM
}

// progressPrinter печатает прогресс каждые 10%.
func progressPrinter() func(done, total int) {
	last := -1
	return func(done, total int) {
		if total <= 0 {
			return
		}
		pct := done * 100 / total
		if pct/10 == last/10 && done != total {
			return
		}
		last = pct
		fmt.Printf("[>] Кадры: %d/%d (%d%%)\n", done, total, pct)
	}
}

func loadEDL(ctx context.Context, cfg *config.Config, ref string) (*edl.EDL, error) {
	name, ok := strings.CutPrefix(ref, "redis:")
	if !ok {
		return edl.ReadFile(ref)
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx, name)
}
