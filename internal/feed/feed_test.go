package feed

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFeedKeepsLatestSnapshot(t *testing.T) {
	produced := make(chan struct{})
	f := Start(context.Background(), func(ctx context.Context, emit Emit[int]) {
		for i := 1; i <= 5; i++ {
			emit(Snapshot[int]{Items: []int{i}})
		}
		close(produced)
		<-ctx.Done()
	})
	defer f.Stop()

	<-produced
	select {
	case s := <-f.C():
		if len(s.Items) != 1 || s.Items[0] != 5 {
			t.Fatalf("snapshot = %v, want [5]", s.Items)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestFeedStopClosesChannel(t *testing.T) {
	exited := make(chan struct{})
	f := Start(context.Background(), func(ctx context.Context, emit Emit[string]) {
		defer close(exited)
		<-ctx.Done()
		if emit(Snapshot[string]{Items: []string{"late"}}) {
			t.Error("emit after stop reported delivery")
		}
	})

	f.Stop()
	f.Stop()

	select {
	case <-exited:
	default:
		t.Fatal("Stop returned before the producer exited")
	}
	for range f.C() {
		t.Fatal("unexpected snapshot after stop")
	}
}

func TestFeedDeliversErrors(t *testing.T) {
	boom := errors.New("permission denied")
	f := Start(context.Background(), func(ctx context.Context, emit Emit[int]) {
		emit(Snapshot[int]{Err: boom})
	})
	defer f.Stop()

	s, ok := <-f.C()
	if !ok || !errors.Is(s.Err, boom) {
		t.Fatalf("snapshot = %+v, ok = %v", s, ok)
	}
	if _, ok := <-f.C(); ok {
		t.Fatal("channel should close once the producer returns")
	}
}

func TestNilFeedStop(t *testing.T) {
	var f *Feed[int]
	f.Stop()
}

func TestMapTransformsAndStopsSource(t *testing.T) {
	srcStopped := make(chan struct{})
	src := Start(context.Background(), func(ctx context.Context, emit Emit[int]) {
		defer close(srcStopped)
		emit(Snapshot[int]{Items: []int{1, 2, 3, 4}})
		<-ctx.Done()
	})

	evens := Map(context.Background(), src, func(in []int) []int {
		var out []int
		for _, v := range in {
			if v%2 == 0 {
				out = append(out, v)
			}
		}
		return out
	})

	select {
	case s := <-evens.C():
		if len(s.Items) != 2 || s.Items[0] != 2 || s.Items[1] != 4 {
			t.Fatalf("mapped = %v", s.Items)
		}
	case <-time.After(time.Second):
		t.Fatal("no mapped snapshot")
	}

	evens.Stop()
	select {
	case <-srcStopped:
	case <-time.After(time.Second):
		t.Fatal("source feed still running")
	}
}
