package tuning

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	time.Sleep(120 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after Stop, want 0", got)
	}
}

func TestFileWatcher_ShouldProcessEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ml_patterns.json")

	fw, err := NewFileWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer fw.Stop()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{"chmod only", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"sibling", fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fw.shouldProcessEvent(tt.event); got != tt.want {
				t.Errorf("shouldProcessEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileWatcher_StopIdempotent(t *testing.T) {
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "x.json"), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("first Stop() error = %v", err)
	}
	if err := fw.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestFileWatcher_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ml_patterns.json")
	writeFile(t, path, "{}")

	fw, err := NewFileWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fw.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "unrelated.json"), "{}")
	writeFile(t, path, `{"version":"2"}`)

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange not called")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
	_ = fw.Stop()
}
