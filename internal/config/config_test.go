package config

import (
	"os"
	"testing"
)

func TestDefaultMatchesKnownBaseline(t *testing.T) {
	d := Default()
	if d.TickRate != 60 || d.BroadcastRate != 20 {
		t.Fatalf("tick/broadcast rate = %d/%d, want 60/20", d.TickRate, d.BroadcastRate)
	}
	if d.RMap != d.WorldWidth/2 {
		t.Fatalf("RMap = %v, want half of WorldWidth (%v)", d.RMap, d.WorldWidth/2)
	}
	if d.SelfCollision {
		t.Fatal("SelfCollision should default to false")
	}
}

func TestLoadEnvOverridesFromEnvironment(t *testing.T) {
	t.Setenv("WORMARENA_TICK_RATE", "30")
	t.Setenv("WORMARENA_FOOD_TARGET", "10")
	t.Setenv("WORMARENA_SELF_COLLISION", "true")

	got := LoadEnv()
	if got.TickRate != 30 {
		t.Fatalf("TickRate = %d, want 30 from env override", got.TickRate)
	}
	if got.FoodTarget != 10 {
		t.Fatalf("FoodTarget = %d, want 10 from env override", got.FoodTarget)
	}
	if !got.SelfCollision {
		t.Fatal("SelfCollision should be true from env override")
	}
}

func TestLoadEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WORMARENA_TICK_RATE", "not-a-number")
	got := LoadEnv()
	if got.TickRate != Default().TickRate {
		t.Fatalf("TickRate = %d, want unchanged default on malformed override", got.TickRate)
	}
}

func TestLoadEnvLeavesUnsetFieldsAtDefault(t *testing.T) {
	os.Unsetenv("WORMARENA_BROADCAST_RATE")
	got := LoadEnv()
	if got.BroadcastRate != Default().BroadcastRate {
		t.Fatalf("BroadcastRate = %d, want default %d when unset", got.BroadcastRate, Default().BroadcastRate)
	}
}
