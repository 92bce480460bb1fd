// Package config centralizes all tunable game parameters.
package config

import "time"

// Arena dimensions in logical units. Renderers letterbox this area onto
// whatever surface they have.
const (
	ArenaWidth  = 800
	ArenaHeight = 600
)

// Player
const (
	PlayerRadius = 16.0
	PlayerSpeed  = 8.0 // Max units per frame toward the target
	PlayerColor  = "#00ffff"

	// ArrivalTolerance is the distance at which the player counts as arrived.
	ArrivalTolerance = 1.0
)

// Enemies
const (
	EnemyColor        = "#ff3333"
	EnemyMinRadius    = 28.0
	EnemyRadiusJitter = 8.0
	EnemyBaseSpeed    = 3.0
	EnemySpeedPerLvl  = 0.4 // Added per difficulty level
	EnemySpeedJitter  = 2.0
	SpawnMargin       = 50.0  // Distance outside the arena edge where enemies appear
	DestroyMargin     = 100.0 // Enemies beyond this distance outside the arena are culled

	// CollisionTolerance shrinks the combined radii so grazes survive.
	CollisionTolerance = 2.0
)

// Spawning
const (
	SpawnBaseChance   = 0.04
	SpawnChancePerLvl = 0.005
	DifficultyStep    = 10 * time.Second
)

// Particles
const (
	ExplosionParticles = 25
	ParticleMinSpeed   = 2.0
	ParticleSpeedRange = 6.0
	ParticleDecay      = 0.04 // Life lost per frame
	ParticleDrawRadius = 4.0
)

// Rendering colors
const (
	ArenaColor     = "#050505"
	BorderColor    = "#444444"
	LetterboxColor = "#ffffff"
)

// Leaderboard
const (
	LeaderboardSize      = 10
	MaxDisplayNameLength = 16
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS

	// Max terminal area used for rendering; larger terminals get a centered
	// area with a border.
	MaxTermWidth  = 160
	MaxTermHeight = 60
)

// Server tick rate
const (
	ServerTickRate = 60
	ServerTickTime = time.Second / ServerTickRate
)

// Web streaming
const (
	WebBroadcastRate = 30
	WebBroadcastTime = time.Second / WebBroadcastRate
)
