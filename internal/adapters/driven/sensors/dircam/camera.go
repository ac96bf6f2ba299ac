// Package dircam provides a camera backed by a directory of frames.
//
// An external capture process (a phone bridge, ffmpeg, a Pi camera
// script) keeps writing JPEG or PNG files into a directory. The camera
// watches that directory with fsnotify and on Capture copies the newest
// frame into a private spool directory so the writer can overwrite or
// rotate its files freely. Spooled frames are the transient ImageRefs
// handed to the rest of the system and are removed by Delete.
package dircam

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/logger"
)

// Ensure Camera implements the interfaces.
var (
	_ driven.Camera     = (*Camera)(nil)
	_ driven.FrameStore = (*Camera)(nil)
)

// Config holds configuration for a directory camera.
type Config struct {
	// FramesDir is the directory the capture process writes into.
	FramesDir string

	// SpoolDir holds copied frames until they are deleted.
	// Defaults to a "spool" directory next to FramesDir.
	SpoolDir string
}

// Camera serves the newest frame written to a directory.
type Camera struct {
	framesDir string
	spoolDir  string
	watcher   *fsnotify.Watcher

	mu     sync.RWMutex
	latest string
	mtime  time.Time

	done chan struct{}
}

// New creates a camera and starts watching cfg.FramesDir.
// Call Close to stop watching.
func New(cfg Config) (*Camera, error) {
	if cfg.FramesDir == "" {
		return nil, fmt.Errorf("%w: frames directory is required", domain.ErrInvalidInput)
	}
	info, err := os.Stat(cfg.FramesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: frames directory: %w", domain.ErrSensorUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, cfg.FramesDir)
	}

	spool := cfg.SpoolDir
	if spool == "" {
		spool = filepath.Join(filepath.Dir(filepath.Clean(cfg.FramesDir)), "spool")
	}
	if err := os.MkdirAll(spool, 0700); err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(cfg.FramesDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", cfg.FramesDir, err)
	}

	c := &Camera{
		framesDir: cfg.FramesDir,
		spoolDir:  spool,
		watcher:   watcher,
		done:      make(chan struct{}),
	}
	c.scan()
	go c.watch()
	return c, nil
}

// scan seeds the newest frame from files already in the directory.
func (c *Camera) scan() {
	entries, err := os.ReadDir(c.framesDir)
	if err != nil {
		logger.Warn("dircam: reading %s: %v", c.framesDir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		c.consider(filepath.Join(c.framesDir, entry.Name()))
	}
}

func (c *Camera) watch() {
	defer close(c.done)
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(event)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("dircam: watcher error: %v", err)
		}
	}
}

func (c *Camera) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		c.consider(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		c.mu.Lock()
		if c.latest == event.Name {
			c.latest = ""
			c.mtime = time.Time{}
		}
		c.mu.Unlock()
		// Fall back to whatever is still there.
		c.scan()
	}
}

// consider makes path the latest frame if it is an image at least as new
// as the current one.
func (c *Camera) consider(path string) {
	if !isImage(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == "" || path == c.latest || !info.ModTime().Before(c.mtime) {
		c.latest = path
		c.mtime = info.ModTime()
	}
}

func isImage(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// Latest returns the path of the newest frame, "" if none.
func (c *Camera) Latest() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// Capture copies the newest frame into the spool directory.
func (c *Camera) Capture(ctx context.Context) (domain.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src := c.Latest()
	if src == "" {
		return "", fmt.Errorf("%w: no frame in %s", domain.ErrSensorUnavailable, c.framesDir)
	}

	dst := filepath.Join(c.spoolDir, uuid.NewString()+strings.ToLower(filepath.Ext(src)))
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("%w: spooling frame: %w", domain.ErrSensorUnavailable, err)
	}
	return domain.ImageRef(dst), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// spooled returns the file path for ref if it lives in the spool directory.
func (c *Camera) spooled(ref domain.ImageRef) (string, error) {
	path := filepath.Clean(string(ref))
	if filepath.Dir(path) != filepath.Clean(c.spoolDir) {
		return "", fmt.Errorf("%w: %s is not a spooled frame", domain.ErrInvalidInput, ref)
	}
	return path, nil
}

// Load reads a spooled frame.
func (c *Camera) Load(_ context.Context, ref domain.ImageRef) ([]byte, error) {
	path, err := c.spooled(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}
	return data, nil
}

// Delete removes a spooled frame. Missing frames are ignored.
func (c *Camera) Delete(_ context.Context, ref domain.ImageRef) error {
	path, err := c.spooled(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting frame: %w", err)
	}
	return nil
}

// Close stops watching the frames directory.
func (c *Camera) Close() error {
	err := c.watcher.Close()
	<-c.done
	return err
}
