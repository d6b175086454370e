package gameroom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"stockticker/internal/game/match"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func runManager(t *testing.T, cfg ManagerConfig) *RoomManager {
	t.Helper()
	rm := NewRoomManager(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	go rm.Run(ctx)
	t.Cleanup(cancel)
	return rm
}

// sweepNow runs one cleanup pass synchronously.
func (rm *RoomManager) sweepNow() int {
	reply := make(chan int, 1)
	if rm.request(sweepRequest{reply: reply}) != nil {
		return 0
	}
	return <-reply
}

func TestGetOrCreate(t *testing.T) {
	rm := runManager(t, ManagerConfig{})

	r1, err := rm.GetOrCreate("table")
	if err != nil {
		t.Fatal(err)
	}
	r2, _ := rm.GetOrCreate("table")
	if r1 != r2 {
		t.Error("same id produced two rooms")
	}
	fresh, _ := rm.GetOrCreate("")
	if fresh.ID() == "" || fresh.ID() == "table" {
		t.Errorf("generated id = %q", fresh.ID())
	}
	if _, ok := rm.Get("nope"); ok {
		t.Error("Get created a room")
	}
	if got := rm.List(); len(got) != 2 {
		t.Errorf("list = %+v", got)
	}

	rm.Remove("table")
	if _, ok := rm.Get("table"); ok {
		t.Error("room still registered after Remove")
	}
	select {
	case <-r1.Done():
	case <-time.After(2 * time.Second):
		t.Error("removed room goroutine still running")
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	rm := runManager(t, ManagerConfig{})
	var wg sync.WaitGroup
	rooms := make([]*Room, 32)
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i], _ = rm.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()
	for _, r := range rooms {
		if r != rooms[0] {
			t.Fatal("concurrent GetOrCreate returned different rooms")
		}
	}
}

func TestSweepEvictsIdleRooms(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rm := runManager(t, ManagerConfig{IdleGrace: 10 * time.Minute, Now: clock.Now})

	idle, _ := rm.GetOrCreate("idle")
	busy, _ := rm.GetOrCreate("busy")
	p := newPeer("p")
	if _, err := busy.Attach(context.Background(), p, "A", "Ann"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(9 * time.Minute)
	if n := rm.sweepNow(); n != 0 {
		t.Fatalf("evicted %d rooms before the grace period", n)
	}
	clock.Advance(time.Minute)
	if n := rm.sweepNow(); n != 1 {
		t.Fatalf("evicted %d rooms, want 1", n)
	}
	if _, ok := rm.Get("idle"); ok {
		t.Error("idle room survived")
	}
	if _, ok := rm.Get("busy"); !ok {
		t.Error("room with a socket was evicted")
	}
	<-idle.Done()
}

func TestSweepEvictsFinishedAfterRetention(t *testing.T) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rm := runManager(t, ManagerConfig{Retention: time.Hour, IdleGrace: 24 * time.Hour, Now: clock.Now})

	room, _ := rm.GetOrCreate("done")
	a, b := newPeer("a"), newPeer("b")
	room.Attach(context.Background(), a, "A", "Ann")
	room.Attach(context.Background(), b, "B", "Bob")
	room.Forward(a, "A", StartAction{})
	room.Forward(b, "B", LeaveAction{})
	snap, err := room.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != match.StatusFinished {
		t.Fatalf("status = %s, want finished", snap.Status)
	}

	clock.Advance(59 * time.Minute)
	if n := rm.sweepNow(); n != 0 {
		t.Fatal("finished room evicted before retention")
	}
	clock.Advance(time.Minute)
	if n := rm.sweepNow(); n != 1 {
		t.Fatal("finished room not evicted after retention")
	}
}

func TestRunStopsRooms(t *testing.T) {
	rm := NewRoomManager(ManagerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		rm.Run(ctx)
		close(stopped)
	}()
	room, _ := rm.GetOrCreate("x")
	cancel()
	<-stopped
	<-room.Done()
	if _, err := rm.GetOrCreate("y"); err == nil {
		t.Error("stopped manager created a room")
	}
}

func TestCheck(t *testing.T) {
	rm := NewRoomManager(ManagerConfig{})
	if err := rm.Check(20 * time.Millisecond); err == nil {
		t.Fatal("check passed before Run")
	}
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		rm.Run(ctx)
		close(stopped)
	}()
	if err := rm.Check(time.Second); err != nil {
		t.Fatalf("running manager: %v", err)
	}
	cancel()
	<-stopped
	if err := rm.Check(time.Second); err == nil {
		t.Fatal("check passed after stop")
	}
}

func TestSessionsAPI(t *testing.T) {
	rm := runManager(t, ManagerConfig{})
	router := chi.NewRouter()
	RegisterHandlers(router, rm)
	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/sessions", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	var created CreateSessionResponse
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.SessionID == "" {
		t.Fatalf("create: %d %+v", resp.StatusCode, created)
	}

	resp, _ = http.Get(ts.URL + "/sessions")
	var list []Summary
	json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if len(list) != 1 || list[0].ID != created.SessionID || list[0].Status != match.StatusWaiting {
		t.Errorf("list = %+v", list)
	}

	resp, _ = http.Get(ts.URL + "/sessions/" + created.SessionID)
	var snap match.Snapshot
	json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || snap.SessionID != created.SessionID {
		t.Errorf("get: %d %+v", resp.StatusCode, snap)
	}

	resp, _ = http.Get(ts.URL + "/sessions/missing")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing session status = %d", resp.StatusCode)
	}
}
