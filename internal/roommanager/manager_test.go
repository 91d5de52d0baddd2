package roommanager

import (
	"testing"
	"time"

	"wormarena/internal/config"
)

func testConfig() config.Tunables {
	cfg := config.Default()
	cfg.TickRate = 100
	cfg.BroadcastRate = 50
	cfg.FoodTarget = 3
	cfg.RespawnPerTick = 3
	return cfg
}

func freshManager(t *testing.T) *Manager {
	t.Helper()
	ResetForTest()
	m := Get(testConfig(), func() int64 { return time.Now().UnixMilli() })
	t.Cleanup(ResetForTest)
	return m
}

func TestGetCreatesDefaultRoom(t *testing.T) {
	m := freshManager(t)
	if m.DefaultRoom() == nil {
		t.Fatal("Get should create and start the default room")
	}
}

func TestAssignPlayerAlwaysReturnsDefaultRoom(t *testing.T) {
	m := freshManager(t)
	r := m.AssignPlayer("some-other-room")
	if r != m.DefaultRoom() {
		t.Fatal("AssignPlayer should always return the default room")
	}
}

func TestCreateRoomRejectsDuplicateID(t *testing.T) {
	m := freshManager(t)
	_, err := m.CreateRoom("extra", testConfig())
	if err != nil {
		t.Fatalf("first CreateRoom failed: %v", err)
	}
	_, err = m.CreateRoom("extra", testConfig())
	if err == nil {
		t.Fatal("expected an error creating a room with a duplicate ID")
	}
}

func TestDestroyRoomRefusesDefaultRoom(t *testing.T) {
	m := freshManager(t)
	if err := m.DestroyRoom(DefaultRoomID); err == nil {
		t.Fatal("the default room should never be destroyable")
	}
}

func TestDestroyRoomRemovesExtraRoom(t *testing.T) {
	m := freshManager(t)
	if _, err := m.CreateRoom("extra", testConfig()); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if err := m.DestroyRoom("extra"); err != nil {
		t.Fatalf("DestroyRoom failed: %v", err)
	}
	if m.Room("extra") != nil {
		t.Fatal("destroyed room should no longer be retrievable")
	}
}

func TestListRoomsIncludesEveryRoom(t *testing.T) {
	m := freshManager(t)
	if _, err := m.CreateRoom("extra", testConfig()); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	rooms := m.ListRooms()
	if len(rooms) != 2 {
		t.Fatalf("len(rooms) = %d, want 2 (default + extra)", len(rooms))
	}
}
