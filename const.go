// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

const (
	PI  = 3.1415926535897932 // Pi
	DTR = PI / 180.0         // Degrees to radians
	RTD = 180.0 / PI         // Radians to degrees
	KPH = 3.6                // m/s to km/h
)

// Coefficients of the meters-per-degree series (WGS84 approximation)
const (
	c1 = 111412.84
	c2 = -93.5
	c3 = 0.118
	c4 = 111132.92
	c5 = -559.82
	c6 = 1.175
	c7 = 0.0023
)

// Defaults of the editing session
const (
	DefaultCapacity       = 25000   // Records resident in the window
	DefaultHold           = 100     // Records kept resident across a dump
	DefaultMeanTimeWindow = 10.0    // Gaussian mean time window [s]
	DefaultDrGap          = 300.0   // Dead reckoning restarts after a gap this long [s]
	DefaultBadTimeGap     = 60.0    // Gap treated as suspicious by DeleteBadTime [s]
	DefaultSpeedWeight    = 100.0   // Inversion velocity smoothness weight
	DefaultAccelWeight    = 100.0   // Inversion acceleration smoothness weight
	DefaultCycles         = 512     // Chebyshev iteration count
	DefaultBandwidth      = 10000.0 // Ratio of upper to lower eigenvalue bound
	ChebyshevWarnRecords  = 200     // Views longer than this converge poorly by Chebyshev iteration
)

// Power iteration schedule for the eigenvalue bound
const (
	eigWarmup = 4  // Iterations of the warm-up pass
	eigRounds = 4  // Refinement rounds
	eigCycles = 16 // Iterations per refinement round
)
