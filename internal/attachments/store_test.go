package attachments

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestSaveDeduplicatesByContent(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	payload := []byte("identical bytes")
	first, err := store.Save("report.pdf", payload)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	second, err := store.Save("copy_of_report.pdf", payload)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}

	if first != "report.pdf" {
		t.Errorf("first name = %q, want report.pdf", first)
	}
	if second != first {
		t.Errorf("duplicate content should reuse the assigned name, got %q vs %q", second, first)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one stored file, found %d", len(entries))
	}
}

func TestSaveDisambiguatesNameCollisions(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	first, err := store.Save("image.png", []byte("payload one"))
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	second, err := store.Save("image.png", []byte("payload two"))
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}

	if first != "image.png" {
		t.Errorf("first name = %q", first)
	}
	if second != "image_1.png" {
		t.Errorf("second name = %q, want image_1.png", second)
	}

	third, err := store.Save("image.png", []byte("payload three"))
	if err != nil {
		t.Fatalf("third Save: %v", err)
	}
	if third != "image_2.png" {
		t.Errorf("third name = %q, want image_2.png", third)
	}
}

func TestSaveRejectsEmptyPayload(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	name, err := store.Save("empty.txt", nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if name != "empty.txt" {
		t.Errorf("name = %q, want original back", name)
	}
	if store.Count() != 0 {
		t.Error("empty payload must not be stored")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "empty.txt")); !os.IsNotExist(statErr) {
		t.Error("no file should be written for an empty payload")
	}
}

func TestSaveSanitizesUnsafeNames(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	name, err := store.Save(`inv<oi>ce:2024?.pdf`, []byte("bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if strings.ContainsAny(name, `<>:"/\|?*`) {
		t.Errorf("name %q still contains unsafe characters", name)
	}
	if name != "invoice2024.pdf" {
		t.Errorf("name = %q, want invoice2024.pdf", name)
	}
}

func TestSaveEmptyNameFallsBack(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	name, err := store.Save("???", []byte("data"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if name != "attachment" {
		t.Errorf("name = %q, want attachment", name)
	}
}

func TestSaveConcurrent(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// All goroutines save the same content under different names.
			if _, err := store.Save("shared.bin", []byte("same payload")); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.Count() != 1 {
		t.Errorf("Count = %d, want 1 after concurrent duplicate saves", store.Count())
	}
}

func TestFallbackName(t *testing.T) {
	payload := []byte("some payload")

	withCID := FallbackName("<part1.abc@mail>", "image/png", payload)
	if withCID != "part1.abc@mail.png" {
		t.Errorf("FallbackName with cid = %q", withCID)
	}

	withoutCID := FallbackName("", "application/pdf", payload)
	if !strings.HasPrefix(withoutCID, "attachment_") || !strings.HasSuffix(withoutCID, ".pdf") {
		t.Errorf("FallbackName without cid = %q", withoutCID)
	}

	unknown := FallbackName("", "application/x-mystery", payload)
	if !strings.HasSuffix(unknown, ".bin") {
		t.Errorf("unknown mime should get .bin, got %q", unknown)
	}
}
