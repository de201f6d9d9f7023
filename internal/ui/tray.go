package ui

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/reelcut/reelcut-agent/internal/processing"
	"github.com/reelcut/reelcut-agent/internal/upload"
)

//go:embed icon.png
var iconBytes []byte

// Uploads is the part of the upload controller the tray drives.
type Uploads interface {
	Snapshot() upload.Snapshot
	OnChange(fn func(upload.Snapshot))
	Reset()
}

type Tray struct {
	uploads Uploads
	apiURL  string
	logger  *slog.Logger

	statusItem *systray.MenuItem
	sourceItem *systray.MenuItem
	resetItem  *systray.MenuItem

	mu    sync.Mutex
	ready bool

	onQuit func()
}

type TrayConfig struct {
	Uploads Uploads
	APIURL  string
	Logger  *slog.Logger
	OnQuit  func()
}

func NewTray(cfg TrayConfig) *Tray {
	t := &Tray{
		uploads: cfg.Uploads,
		apiURL:  cfg.APIURL,
		logger:  cfg.Logger,
		onQuit:  cfg.OnQuit,
	}
	if t.uploads != nil {
		t.uploads.OnChange(t.update)
	}
	return t
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Reelcut")
	systray.SetTooltip("Reelcut Agent")

	apiItem := systray.AddMenuItem("API: "+t.apiURL, "Local API address")
	apiItem.Disable()

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("Status: Idle", "Current upload status")
	t.statusItem.Disable()
	t.sourceItem = systray.AddMenuItem("No video selected", "Current upload source")
	t.sourceItem.Disable()
	systray.AddSeparator()
	t.resetItem = systray.AddMenuItem("New Upload", "Discard the current upload")
	t.ready = true
	t.mu.Unlock()

	systray.AddSeparator()
	quitItem := systray.AddMenuItem("Quit", "Quit Reelcut Agent")

	if t.uploads != nil {
		t.update(t.uploads.Snapshot())
	}

	go func() {
		for {
			select {
			case <-t.resetItem.ClickedCh:
				t.logger.Info("upload reset requested from tray")
				if t.uploads != nil {
					t.uploads.Reset()
				}
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) update(s upload.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}
	t.statusItem.SetTitle("Status: " + StatusText(s))
	t.sourceItem.SetTitle(SourceText(s))
}

// StatusText summarizes an upload snapshot for the tray menu.
func StatusText(s upload.Snapshot) string {
	switch s.Phase {
	case upload.PhaseCollecting:
		return "Ready to process"
	case upload.PhaseUploading:
		if up := s.Uploaded(); up != "" {
			return "Uploading " + up
		}
		return fmt.Sprintf("%s (%s)", processing.Message(s.Progress), processing.Badge(s.Progress))
	case upload.PhasePolling:
		return fmt.Sprintf("%s (%s)", processing.Message(s.Progress), processing.Badge(s.Progress))
	case upload.PhaseComplete:
		return "Complete"
	case upload.PhaseFailed:
		return "Failed: " + s.Error
	default:
		return "Idle"
	}
}

func SourceText(s upload.Snapshot) string {
	switch {
	case s.File != nil:
		return fmt.Sprintf("%s (%s)", s.File.Name, s.File.Size())
	case s.Youtube != nil:
		return "YouTube: " + s.Youtube.Title
	default:
		return "No video selected"
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
