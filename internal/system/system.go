package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// InitResourceLimits поднимает лимит открытых файлов: кэш ассетов и ffmpeg
// держат много дескрипторов одновременно.
func InitResourceLimits(logger zerolog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn().Err(err).Msg("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn().Err(err).Msg("could not raise open file limit")
		return
	}
	logger.Debug().Uint64("nofile", uint64(rLimit.Cur)).Msg("open file limit raised")
}

var (
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	MediaExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".pdf"}
)

// FindLatest возвращает самый свежий файл в dir с одним из расширений.
// Если path указывает на файл, поиск идет в его директории.
func FindLatest(path string, extensions ...string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	dir := path
	if !fi.IsDir() {
		dir = filepath.Dir(path)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !HasExtension(f.Name(), extensions...) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(extensions, "/"), dir)
	}
	return latestFile, nil
}

// HasExtension сравнивает расширение без учета регистра.
func HasExtension(name string, extensions ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Приоритеты:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
// 3. Software (libx264)
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

// BestH264Encoder опрашивает ffmpeg один раз и выбирает лучший доступный H.264 энкодер.
func BestH264Encoder(ctx context.Context, ffmpegPath string) string {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(list string) string {
	for _, enc := range hardwareEncoders {
		if strings.Contains(list, enc) {
			return enc
		}
	}
	return "libx264"
}

// ResolveEncoder возвращает requested, а для "auto" или пустого значения ищет лучший энкодер.
func ResolveEncoder(ctx context.Context, ffmpegPath, requested string) string {
	if requested != "" && requested != "auto" {
		return requested
	}
	return BestH264Encoder(ctx, ffmpegPath)
}

// DefaultQuality подбирает значение качества под энкодер, если в конфиге его нет.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // 7.5 Мбит/с
	case "h264_nvenc":
		return 23
	}
	return 20
}
