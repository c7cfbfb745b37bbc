package cards

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ff0000", Color{R: 0xff, A: 0xff}, false},
		{"00ff0080", Color{G: 0xff, A: 0x80}, false},
		{"  #0000FFff ", Color{B: 0xff, A: 0xff}, false},
		{"#fff", Color{}, true},
		{"#gg0000", Color{}, true},
		{"", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorHexRoundTrip(t *testing.T) {
	c := Color{R: 1, G: 2, B: 3, A: 4}
	assert.Equal(t, "#01020304", c.Hex())
	back, err := ParseColor(c.Hex())
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestMemoryStoreCreateDefaults(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithClock(fixedClock()), WithIDGenerator(sequentialIDs()))

	first, err := s.Create(ctx, Draft{Payload: "123", Type: barcode.TypeEAN13})
	require.NoError(t, err)
	assert.Equal(t, "id-001", first.ID)
	assert.Equal(t, "Card 1", first.Name)
	assert.Equal(t, DefaultColor, first.Color)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.Create(ctx, Draft{Payload: "456", Type: barcode.TypeQR})
	require.NoError(t, err)
	assert.Equal(t, "Card 2", second.Name)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Create(ctx, Draft{Payload: "  ", Type: barcode.TypeQR})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.Create(ctx, Draft{Payload: "1", Type: barcode.Type(99)})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMemoryStoreGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	red := Color{R: 0xff, A: 0xff}

	rec, err := s.Create(ctx, Draft{Name: "Bakery", Payload: "42", Type: barcode.TypeCode39, Color: &red})
	require.NoError(t, err)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	got.Name = "Corner Bakery"
	got.Payload = "43"
	got.Type = barcode.TypeCode93
	got.CreatedAt = time.Time{}
	updated, err := s.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", updated.Name)
	assert.Equal(t, "43", updated.Payload)
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt, "creation time is immutable")

	require.NoError(t, s.Delete(ctx, rec.ID))
	_, err = s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrNotFound)
	_, err = s.Update(ctx, got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCollationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithClock(fixedClock()))
	for _, name := range []string{"zoo", "Éclair", "apple", "Banana", "eclair"} {
		_, err := s.Create(ctx, Draft{Name: name, Payload: "1", Type: barcode.TypeQR})
		require.NoError(t, err)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, r := range list {
		names[i] = r.Name
	}
	assert.Equal(t, "apple", names[0])
	assert.Equal(t, "Banana", names[1])
	assert.Equal(t, "zoo", names[4])
	assert.ElementsMatch(t, []string{"Éclair", "eclair"}, names[2:4])
}

func TestNormalizeName(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", NormalizeName("  "+decomposed+" "))
}

func TestDraftFromCapture(t *testing.T) {
	ctx := context.Background()
	c := capture.FromEvent(capture.Event{
		Payload:    "4006381333931",
		RawType:    barcode.LiveEAN13,
		Vocabulary: barcode.VocabularyLiveMetadata,
	}, capture.SourceLiveCamera)

	s := NewMemoryStore()
	rec, err := s.Create(ctx, DraftFromCapture(c, "", nil))
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", rec.Payload)
	assert.Equal(t, barcode.TypeEAN13, rec.Type)
	assert.Equal(t, barcode.RenderRequest{Payload: "4006381333931", Type: barcode.TypeEAN13}, rec.RenderRequest())
}

func TestMemoryStoreConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, Draft{Payload: "1", Type: barcode.TypeCode128})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cards.yaml")

	fs, err := OpenFileStore(path, WithClock(fixedClock()))
	require.NoError(t, err)
	n, err := fs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	green := Color{G: 0x80, A: 0xff}
	a, err := fs.Create(ctx, Draft{Name: "Gym", Payload: "9001", Type: barcode.TypeDataMatrix, Color: &green})
	require.NoError(t, err)
	b, err := fs.Create(ctx, Draft{Payload: "77", Type: barcode.TypeUPCE})
	require.NoError(t, err)
	require.NoError(t, fs.Delete(ctx, b.ID))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "type: dataMatrix")
	assert.Contains(t, string(raw), "#008000ff")

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Payload, got.Payload)
	assert.Equal(t, a.Type, got.Type)
	assert.Equal(t, a.Color, got.Color)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

	_, err = reopened.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenFileStoreErrors(t *testing.T) {
	_, err := OpenFileStore("")
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("cards: [::"), 0o600))
	_, err = OpenFileStore(bad)
	assert.Error(t, err)

	future := filepath.Join(dir, "future.yaml")
	require.NoError(t, os.WriteFile(future, []byte("version: 9\ncards: []\n"), 0o600))
	_, err = OpenFileStore(future)
	assert.Error(t, err)
}
