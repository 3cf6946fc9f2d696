package snapshot

import (
	"sync"
	"testing"
	"time"
)

func TestUnsubscribeClosesChannel(t *testing.T) {
	updates, unsub := Subscribe()
	unsub()

	select {
	case _, ok := <-updates:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for channel close")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	_, unsub := Subscribe()
	unsub()
	unsub()
}

func TestPublishUpdateNonBlocking(t *testing.T) {
	updates, unsub := Subscribe()
	defer unsub()

	publishUpdate("etag1")

	done := make(chan struct{})
	go func() {
		publishUpdate("etag2")
		publishUpdate("etag3")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publishUpdate blocked on slow subscriber")
	}

	if got := <-updates; got != "etag1" {
		t.Errorf("expected first pending ETag to be kept, got %s", got)
	}
}

func TestMultipleSubscribersReceiveUpdates(t *testing.T) {
	const n = 5
	chans := make([]<-chan string, 0, n)
	for i := 0; i < n; i++ {
		ch, unsub := Subscribe()
		defer unsub()
		chans = append(chans, ch)
	}

	publishUpdate("reload-1")

	timeout := time.After(time.Second)
	for i, ch := range chans {
		select {
		case etag := <-ch:
			if etag != "reload-1" {
				t.Errorf("subscriber %d got %s", i, etag)
			}
		case <-timeout:
			t.Fatalf("timeout: subscriber %d received nothing", i)
		}
	}
}

func TestSubscriberReceivesOnlyAfterSubscription(t *testing.T) {
	publishUpdate("before-sub")

	updates, unsub := Subscribe()
	defer unsub()
	publishUpdate("after-sub")

	select {
	case etag := <-updates:
		if etag != "after-sub" {
			t.Errorf("expected after-sub, got %s", etag)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for update")
	}

	select {
	case etag := <-updates:
		t.Errorf("unexpected update received: %s", etag)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentSubscribeUnsubscribe(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			updates, unsub := Subscribe()
			time.Sleep(time.Millisecond)
			unsub()
			for range updates {
			}
		}()
		go func() {
			defer wg.Done()
			publishUpdate("concurrent")
		}()
	}
	wg.Wait()
}
