package runner

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ScanProgress renders per-domain progress bars and diagnostic lines on
// the terminal. It is fed by the scanner's progress and log callbacks,
// which may arrive from the pool's collector goroutine, so updates are
// serialized.
type ScanProgress struct {
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	domain string
}

// NewScanProgress creates a terminal progress renderer.
func NewScanProgress() *ScanProgress {
	return &ScanProgress{}
}

// Update handles one (domain, completed, total) event. A (domain, 0, 0)
// event announces a new domain; a (0, total) event starts its bar; the
// final (total, total) event finishes it.
func (p *ScanProgress) Update(domain string, completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if total == 0 && completed == 0 {
		p.finishBar()
		p.domain = domain
		cyan := color.New(color.FgCyan, color.Bold)
		cyan.Printf("\n[*] Scanning %s\n", domain)
		return
	}

	if p.bar == nil || p.domain != domain {
		p.domain = domain
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(fmt.Sprintf("    %s", domain)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.bar.Set(completed)
	if completed >= total {
		p.finishBar()
		green := color.New(color.FgGreen)
		green.Printf("    done (%d candidates)\n", total)
	}
}

// Log prints a scanner diagnostic (wildcard skip, per-domain failure).
func (p *ScanProgress) Log(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	yellow := color.New(color.FgYellow)
	yellow.Printf("    [!] %s\n", msg)
}

func (p *ScanProgress) finishBar() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
