package requestlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.log")
	l := New(path)
	l.now = func() time.Time {
		return time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	}

	if err := l.Record(123456789, "alice", 48213); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "2024-03-15-09-30-45, 123456789, alice, 48213\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, string(data))
	}
}

func TestRecordAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.log")
	l := New(path)

	for i := 0; i < 3; i++ {
		if err := l.Record(int64(i), "user", 100+i); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestRecordCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "logs", "requests.log")
	l := New(path)
	if err := l.Record(1, "bob", 10); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

func TestRecordConcurrentLinesStayIntact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.log")
	l := New(path)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Record(int64(i), "user", i); err != nil {
				t.Errorf("Record failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != writers {
		t.Fatalf("expected %d lines, got %d", writers, len(lines))
	}
	for _, line := range lines {
		if strings.Count(line, ",") != 3 {
			t.Errorf("malformed line: %q", line)
		}
	}
}
