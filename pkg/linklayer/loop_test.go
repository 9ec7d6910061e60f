package linklayer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopRunsPostedCompletionsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := NewLoop()
	go loop.Run(ctx)

	var got []int
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		i := i
		loop.Post(func() {
			got = append(got, i)
			if i == 9 {
				close(done)
			}
		})
	}

	<-done
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLoopSerializesConcurrentPosters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := NewLoop()
	go loop.Run(ctx)

	// counter is unguarded: only loop serialization keeps this free of
	// races under -race.
	counter := 0
	const posters, perPoster = 8, 50

	var wg sync.WaitGroup
	var dispatched sync.WaitGroup
	dispatched.Add(posters * perPoster)
	for i := 0; i < posters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPoster; j++ {
				loop.Post(func() {
					counter++
					dispatched.Done()
				})
			}
		}()
	}
	wg.Wait()
	dispatched.Wait()

	final := make(chan int, 1)
	loop.Post(func() { final <- counter })
	assert.Equal(t, posters*perPoster, <-final)
}

func TestLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop()

	stopped := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
}
