// Package config loads the authoritative simulation tunables.
//
// Defaults match spec.md §6. Values may be overridden by environment
// variables (optionally loaded from a .env file via godotenv) so an
// operator can tune a deployment without recompiling; a further, smaller
// subset is hot-patchable at runtime through the admin HTTP surface
// (see internal/admin).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Tunables holds every constant spec.md §6 names.
type Tunables struct {
	TickRate      int // Hz
	BroadcastRate int // Hz

	WorldWidth  float64
	WorldHeight float64
	RMap        float64 // circular playfield radius

	InitLen         float64
	MaxLen          float64
	BaseSpeed       float64
	BoostMult       float64
	MinBoostLength  float64
	SegRadius       float64
	SegSpacing      float64
	PathRes         float64
	StepMax         float64
	MaxTurnPerTick  float64
	MaxPathPoints   int
	BoostBurnPerSec float64 // length units burned per second while boosting

	FoodTarget       int
	FoodMinRadius    float64
	FoodMaxRadius    float64
	RespawnPerTick   int
	RMagnet          float64
	MagnetVMin       float64
	MagnetVMax       float64
	PointsPerFood    int
	MovingFoodMax    int
	MovingFoodPeriod int // ticks between moving-food spawn attempts
	MovingFoodSpeed  float64

	RView float64
	RBuf  float64

	PointsPerKill   int
	LeaderboardSize int

	SpawnGraceMs int64

	InputBufferSize int
	MaxInputRate    int
	TSkewMs         int64

	PingTimeout    time.Duration
	ResyncInterval int
	TeleportDist   float64

	SlowTickMs     float64
	MaxConsecSlow  int
	SelfCollision  bool
}

// Default returns the spec.md §6 defaults.
func Default() Tunables {
	return Tunables{
		TickRate:      60,
		BroadcastRate: 20,

		WorldWidth:  5000,
		WorldHeight: 5000,
		RMap:        2500,

		InitLen:         10,
		MaxLen:          500,
		BaseSpeed:       150,
		BoostMult:       2.0,
		MinBoostLength:  10,
		SegRadius:       8,
		SegSpacing:      15,
		PathRes:         2,
		StepMax:         4,
		MaxTurnPerTick:  0.15,
		MaxPathPoints:   2000,
		BoostBurnPerSec: 1.0 / 0.3, // 1 length unit per 300ms of boost

		FoodTarget:       1500,
		FoodMinRadius:    3,
		FoodMaxRadius:    8,
		RespawnPerTick:   20,
		RMagnet:          50,
		MagnetVMin:       50,
		MagnetVMax:       600,
		PointsPerFood:    2,
		MovingFoodMax:    3,
		MovingFoodPeriod: 900, // 15s at 60Hz
		MovingFoodSpeed:  80,

		RView: 1500,
		RBuf:  200,

		PointsPerKill:   100,
		LeaderboardSize: 10,

		SpawnGraceMs: 3000,

		InputBufferSize: 10,
		MaxInputRate:    60,
		TSkewMs:         5000,

		PingTimeout:    10 * time.Second,
		ResyncInterval: 40,
		TeleportDist:   100,

		SlowTickMs:    40,
		MaxConsecSlow: 10,
		SelfCollision: false,
	}
}

// LoadEnv overlays environment variables (and an optional .env file, which
// is silently absent in production deployments) onto the defaults.
func LoadEnv() Tunables {
	_ = godotenv.Load()
	t := Default()

	overrideInt(&t.TickRate, "WORMARENA_TICK_RATE")
	overrideInt(&t.BroadcastRate, "WORMARENA_BROADCAST_RATE")
	overrideFloat(&t.RMap, "WORMARENA_R_MAP")
	overrideInt(&t.FoodTarget, "WORMARENA_FOOD_TARGET")
	overrideInt(&t.MaxInputRate, "WORMARENA_MAX_INPUT_RATE")
	overrideBool(&t.SelfCollision, "WORMARENA_SELF_COLLISION")

	return t
}

func overrideInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideFloat(dst *float64, env string) {
	if v := os.Getenv(env); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func overrideBool(dst *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
