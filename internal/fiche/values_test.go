package fiche

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPSFix_String(t *testing.T) {
	tests := []struct {
		fix  GPSFix
		want string
	}{
		{GPSFix{Latitude: 48.8566, Longitude: 2.3522, Accuracy: 12.4}, "48.8566, 2.3522 (±12 m)"},
		{GPSFix{Latitude: -33.5, Longitude: 151, Accuracy: 12.5}, "-33.5, 151 (±13 m)"},
		{GPSFix{}, "0, 0 (±0 m)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.fix.String())
	}
}

func TestValueStore_SetGetClear(t *testing.T) {
	s := NewValueStore()
	s.Set("lieu", "Quai 3")
	s.Set("lieu", "Quai 4")

	v, ok := s.Get("lieu")
	require.True(t, ok)
	assert.Equal(t, "Quai 4", v)

	all := s.GetAll()
	all["lieu"] = "mutated"
	v, _ = s.Get("lieu")
	assert.Equal(t, "Quai 4", v, "GetAll must return a copy")

	s.AttachPhoto(Photo{FieldID: "cliche", Filename: "a.jpg"})
	s.SetGPS(GPSFix{Latitude: 1, Longitude: 2, Accuracy: 3}, "position")
	s.Clear()

	assert.Empty(t, s.GetAll())
	assert.Empty(t, s.Photos())
	_, ok = s.GPS()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestValueStore_SetGPSWritesEveryField(t *testing.T) {
	s := NewValueStore()
	got := s.SetGPS(GPSFix{Latitude: 45.75, Longitude: 4.85, Accuracy: 7.6}, "position", "depart")

	assert.Equal(t, "45.75, 4.85 (±8 m)", got)
	for _, id := range []string{"position", "depart"} {
		v, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, got, v)
	}
	fix, ok := s.GPS()
	require.True(t, ok)
	assert.Equal(t, 45.75, fix.Latitude)
}

func TestValueStore_PhotosSortedAndReplaced(t *testing.T) {
	s := NewValueStore()
	s.AttachPhoto(Photo{FieldID: "z", Filename: "z.jpg"})
	s.AttachPhoto(Photo{FieldID: "a", Filename: "old.jpg"})
	s.AttachPhoto(Photo{FieldID: "a", Filename: "new.jpg"})

	photos := s.Photos()
	require.Len(t, photos, 2)
	assert.Equal(t, "a", photos[0].FieldID)
	assert.Equal(t, "new.jpg", photos[0].Filename)
	assert.Equal(t, "z", photos[1].FieldID)
}

func TestValueStore_ConcurrentAccess(t *testing.T) {
	s := NewValueStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("f%d", i)
			s.Set(id, id)
			_, _ = s.Get(id)
			_ = s.GetAll()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())
}
