// Command nxdt-host is the PC-side companion: it opens the advertised USB
// gadget, speaks the device-side transfer protocol from the host end, and
// writes received files to disk while reporting progress.
package main

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"nxdt/internal/config"
	"nxdt/internal/hostproto"
	"nxdt/internal/hostusb"
	"nxdt/pkg/progress"
)

type diskSink struct {
	dir string
}

func (s diskSink) Create(name string, size uint64) (io.WriteCloser, error) {
	return os.Create(filepath.Join(s.dir, filepath.Base(name)))
}

func logResourceUsage() {
	percents, err := cpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		return
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	log.Printf("nxdt-host: cpu %.1f%% mem %.1f%%", percents[0], vm.UsedPercent)
}

func newReporter(mode string) progress.Reporter {
	switch mode {
	case "bar":
		return progress.NewBarReporter(os.Stdout)
	case "none":
		return progress.NopReporter{}
	default:
		return progress.NewBubbleTeaReporter()
	}
}

func main() {
	cfg, err := config.LoadHostConfig()
	if err != nil {
		log.Fatalf("nxdt-host: load config: %v", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("nxdt-host: create output dir: %v", err)
	}

	dev, err := hostusb.Open(cfg.VendorID, cfg.ProductID)
	if err != nil {
		log.Fatalf("nxdt-host: open device: %v", err)
	}
	defer dev.Close()

	reporter := newReporter(cfg.ProgressMode)
	defer reporter.Close()

	logResourceUsage()

	receiver := hostproto.NewReceiver(dev, diskSink{dir: cfg.OutputDir}, reporter)
	if err := receiver.Run(); err != nil && !errors.Is(err, hostproto.ErrSessionEnded) {
		log.Fatalf("nxdt-host: session failed: %v", err)
	}
	log.Println("nxdt-host: session ended")
}
