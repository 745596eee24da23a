package game

// Default playfield and physics parameters. Units are pixels and pixels per tick
// at a 60 Hz step.
const (
	DefaultWidth  = 800.0
	DefaultHeight = 600.0

	DefaultMarginLeft   = 80.0  // launch anchor x
	DefaultMarginBottom = 30.0  // launch anchor distance from the bottom wall
	DefaultMarginRight  = 150.0 // apex distance from the right edge
	DefaultMarginTop    = 60.0  // apex y

	DefaultSpacingX  = 35.0
	DefaultSpacingY  = 30.0
	DefaultRowInset  = 25.0
	DefaultEdgeInset = 15.0

	DefaultBallRadius      = 8.0
	DefaultPegRadius       = 5.0
	DefaultInitialSpeed    = 2.0
	DefaultGravityX        = 0.05
	DefaultGravityY        = 0.0
	DefaultRestitution     = 0.6
	DefaultWallRestitution = 0.4
	DefaultMaxSpeed        = 6.0
	DefaultExitMargin      = 100.0 // ball settles at x >= Width - ExitMargin
	DefaultMaxTicks        = 3600

	DefaultMinWager = 1.0

	// degenerateEpsilon guards barycentric denominators and collision normals.
	degenerateEpsilon = 1e-10
)
