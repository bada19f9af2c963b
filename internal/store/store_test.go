package store

import (
	"fmt"
	"sync"
	"testing"

	"metcm_relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bulletinN builds a bulletin whose every field carries n, so mixed reads are detectable
func bulletinN(n int) models.Bulletin {
	tag := fmt.Sprintf("%06d", n)
	b := models.Bulletin{
		Header: models.Header{StationID: tag, LatLon: tag, DateTime: tag, HeightPressure: tag},
	}
	for i := range b.Zones {
		b.Zones[i] = fmt.Sprintf("%016d", n)
	}
	return b
}

func TestGetLatest_EmptyBeforePut(t *testing.T) {
	s := New(0)

	b, ok := s.GetLatest()
	assert.False(t, ok)
	assert.Equal(t, models.Bulletin{}, b)
	assert.Equal(t, uint64(0), s.Count())
}

func TestPut_LastWins(t *testing.T) {
	s := New(0)
	for n := 1; n <= 5; n++ {
		s.Put(bulletinN(n))
	}

	b, ok := s.GetLatest()
	require.True(t, ok)
	assert.Equal(t, bulletinN(5), b)
	assert.Equal(t, uint64(5), s.Count())
	assert.Len(t, s.History(), 5)
}

func TestGetLatest_ReturnsCopy(t *testing.T) {
	s := New(0)
	original := bulletinN(1)
	s.Put(original)

	original.Zones[0] = "changed"
	got, _ := s.GetLatest()
	assert.Equal(t, bulletinN(1).Zones[0], got.Zones[0])

	got.Header.StationID = "mutate"
	again, _ := s.GetLatest()
	assert.Equal(t, "000001", again.Header.StationID)
}

func TestHistory_Limit(t *testing.T) {
	s := New(3)
	for n := 1; n <= 10; n++ {
		s.Put(bulletinN(n))
	}

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, "000008", h[0].Header.StationID)
	assert.Equal(t, "000010", h[2].Header.StationID)
	assert.Equal(t, uint64(10), s.Count())
}

func TestConcurrentPutAndGet_NoTornReads(t *testing.T) {
	s := New(10)
	const writes = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 1; n <= writes; n++ {
			s.Put(bulletinN(n))
		}
	}()

	errs := make(chan string, 4)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				b, ok := s.GetLatest()
				if !ok {
					continue
				}
				tag := b.Header.StationID
				for _, z := range b.Zones {
					if z[10:] != tag {
						errs <- fmt.Sprintf("zone %q mixed with header %q", z, tag)
						return
					}
				}
				if b.Header.LatLon != tag || b.Header.HeightPressure != tag {
					errs <- "header fields mixed"
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}

	b, ok := s.GetLatest()
	require.True(t, ok)
	assert.Equal(t, bulletinN(writes), b)
}
