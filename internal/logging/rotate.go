// Package logging sends the standard logger to stdout and a daily rotated file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DailyFile is an io.Writer that rolls its file over at local midnight,
// keeping the newest Keep rotated files (main.log.2006-01-02).
type DailyFile struct {
	mu     sync.Mutex
	path   string
	keep   int
	now    func() time.Time
	file   *os.File
	opened time.Time
}

// OpenDailyFile opens (or creates) path for appending
func OpenDailyFile(path string, keep int) (*DailyFile, error) {
	d := &DailyFile{path: path, keep: keep, now: time.Now}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := d.open(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DailyFile) open() error {
	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	d.file = f
	d.opened = d.now()
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		d.opened = info.ModTime()
	}
	return nil
}

// Write appends p, rotating first if the day changed
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !sameDay(d.opened, d.now()) {
		d.rotate()
	}
	return d.file.Write(p)
}

// Close closes the current file
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

// rotate keeps the current handle until the next file is open, so a failed
// rotation leaves logging on the old file and is retried the next day.
func (d *DailyFile) rotate() {
	current := d.file
	rotated := d.path + "." + d.opened.Format("2006-01-02")
	if err := os.Rename(d.path, rotated); err != nil && !os.IsNotExist(err) {
		d.rotationFailed(fmt.Errorf("failed to rotate log file: %w", err))
		return
	}
	if err := d.open(); err != nil {
		d.file = current
		d.rotationFailed(err)
		return
	}
	current.Close()
	d.prune()
}

// rotationFailed cannot use the standard logger, which writes back into d.
func (d *DailyFile) rotationFailed(err error) {
	fmt.Fprintf(os.Stderr, "logging: %v, still writing to %s\n", err, d.file.Name())
	d.opened = d.now()
}

func (d *DailyFile) prune() {
	matches, err := filepath.Glob(d.path + ".*")
	if err != nil || len(matches) <= d.keep {
		return
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-d.keep] {
		if strings.HasPrefix(old, d.path+".") {
			os.Remove(old)
		}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Setup points the standard logger at stdout and dir/main.log.
// The returned closer flushes the file on shutdown.
func Setup(dir string) (io.Closer, error) {
	file, err := OpenDailyFile(filepath.Join(dir, "main.log"), 7)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	return file, nil
}
