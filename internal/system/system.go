package system

import (
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultWorkers returns the number of logical CPUs, falling back to GOMAXPROCS.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// EstimateMemory returns the peak bytes the pipeline needs: one paletted
// buffer per frame plus one RGBA canvas per worker.
func EstimateMemory(frames, width, height, workers int, palettized bool) uint64 {
	px := uint64(width) * uint64(height)
	perFrame := px
	if !palettized {
		perFrame = px * 4
	}
	return uint64(frames)*perFrame + uint64(workers)*px*4
}

// CheckMemory предупреждает, если оценка превышает доступную память. Никогда не прерывает работу.
func CheckMemory(frames, width, height, workers int, palettized bool) bool {
	need := EstimateMemory(frames, width, height, workers, palettized)
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("[!] Не удалось получить сведения о памяти: %v", err)
		return true
	}
	if need > vm.Available {
		log.Printf("[!] Ожидаемый расход памяти %d МБ превышает доступные %d МБ", need>>20, vm.Available>>20)
		return false
	}
	return true
}

func GenerateOutputPath(dir, name, ext string) string {
	base := filepath.Base(name)
	nameOnly := strings.TrimSuffix(base, filepath.Ext(base))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	if cleanName == "" || cleanName == "." || cleanName == string(filepath.Separator) {
		cleanName = "anim"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", cleanName, timestamp, ext))
}

// NaturalLess orders names by embedded numbers, so gen_2.png sorts before gen_10.png.
func NaturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := rune(a[i]), rune(b[j])
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			si := i
			for i < len(a) && unicode.IsDigit(rune(a[i])) {
				i++
			}
			sj := j
			for j < len(b) && unicode.IsDigit(rune(b[j])) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			// 007 vs 7: shorter run first keeps the order total
			if i-si != j-sj {
				return i-si < j-sj
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264", ""
	}
	for _, enc := range encoders {
		if strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}
