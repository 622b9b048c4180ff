package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		Device:    "lamp-01",
		Source:    SourceProvision,
		Category:  CategoryWrite,
		Write: &WriteEvent{
			Attribute: "network-name",
			Size:      4,
		},
	}

	logger.Log(event)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if decoded.Device != event.Device {
		t.Errorf("Device: got %q, want %q", decoded.Device, event.Device)
	}
	if decoded.Write == nil {
		t.Error("Write is nil")
	} else if decoded.Write.Size != event.Write.Size {
		t.Errorf("Write.Size: got %d, want %d", decoded.Write.Size, event.Write.Size)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wlog")

	logger1, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger1.Log(Event{
		Timestamp: time.Now(),
		Source:    SourceStation,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityLink,
			NewState: "CONNECTING",
		},
	})
	logger1.Close()

	info1, _ := os.Stat(path)
	size1 := info1.Size()

	logger2, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger (reopen) failed: %v", err)
	}
	logger2.Log(Event{
		Timestamp: time.Now(),
		Source:    SourceStation,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityLink,
			NewState: "CONNECTED",
		},
	})
	logger2.Close()

	info2, _ := os.Stat(path)
	if info2.Size() <= size1 {
		t.Errorf("file did not grow on append: %d -> %d bytes", size1, info2.Size())
	}

	// Both events must be readable.
	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		if _, err := reader.Next(); err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("read %d events, want 2", count)
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	// Logging after close must not panic or write.
	logger.Log(Event{Timestamp: time.Now(), Source: SourceAgent, Category: CategoryState})

	info, _ := os.Stat(path)
	if info.Size() != 0 {
		t.Error("Log after Close wrote data")
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{
					Timestamp: time.Now(),
					Source:    SourceIndicator,
					Category:  CategoryState,
					StateChange: &StateChangeEvent{
						Entity:   StateEntityLink,
						NewState: "IDLE",
					},
				})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		if _, err := reader.Next(); err != nil {
			break
		}
		count++
	}
	if count != 100 {
		t.Errorf("read %d events, want 100 (interleaved writes must not corrupt the stream)", count)
	}
}
