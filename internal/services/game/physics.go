package game

import (
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
)

// Field geometry, in percent of the field
const (
	FieldSize    = 100.0
	BallWidth    = 3.3
	BallHeight   = 5.0
	PaddleWidth  = 3.3
	PaddleHeight = 25.0
)

// Motion constants, in field units per tick
const (
	PaddleAccel      = 0.8
	PaddleFriction   = 0.9
	PaddleMaxSpeed   = 3.0
	HitSpeedUp       = 1.05
	DefaultBallSpeed = 2.5
	ServeBaseVX      = 0.6
	ServeBaseVY      = 0.4
)

// Derived positions
const (
	PaddleStartY = (FieldSize - PaddleHeight) / 2
	PaddleMaxY   = FieldSize - PaddleHeight
	BallStartX   = FieldSize/2 - BallWidth/2
	BallStartY   = FieldSize/2 - BallHeight/2
	BallMaxY     = FieldSize - BallHeight
)

// ServeSide records which way the last serve went
type ServeSide string

const (
	ServeNone  ServeSide = ""
	ServeLeft  ServeSide = "left"
	ServeRight ServeSide = "right"
)

// Session is the simulation state of one room. It is not safe for concurrent
// use; the owning Room serializes access.
type Session struct {
	Active bool

	P1Y, P2Y     float64
	P1Vel, P2Vel float64

	BallX, BallY   float64
	BallVX, BallVY float64
	BallSpeed      float64

	S1, S2 int

	UpA, DownA, UpB, DownB bool

	LastServe ServeSide

	// pendingServe makes the next tick serve from the centre
	pendingServe bool
}

// NewSession returns an inactive session with everything centred
func NewSession() *Session {
	s := &Session{BallSpeed: DefaultBallSpeed}
	s.ResetPositions()
	return s
}

// ResetPositions centres paddles and ball, stops all motion and arms a serve
func (s *Session) ResetPositions() {
	s.P1Y, s.P2Y = PaddleStartY, PaddleStartY
	s.P1Vel, s.P2Vel = 0, 0
	s.BallX, s.BallY = BallStartX, BallStartY
	s.BallVX, s.BallVY = 0, 0
	s.pendingServe = true
}

// Halt marks the session inactive and clears all motion and input
func (s *Session) Halt() {
	s.Active = false
	s.P1Vel, s.P2Vel = 0, 0
	s.BallVX, s.BallVY = 0, 0
	s.UpA, s.DownA, s.UpB, s.DownB = false, false, false, false
}

// SetKey applies a key transition for the player in slot. Keys that do not
// belong to the slot are ignored. Reports whether a flag was changed.
func (s *Session) SetKey(slot int, key string, down bool) bool {
	switch {
	case slot == 0 && key == protocol.KeyW:
		s.UpA = down
	case slot == 0 && key == protocol.KeyS:
		s.DownA = down
	case slot == 1 && key == protocol.KeyArrowUp:
		s.UpB = down
	case slot == 1 && key == protocol.KeyArrowDown:
		s.DownB = down
	default:
		return false
	}
	return true
}

// Step advances the simulation by one tick. Returns the side that scored, if any.
func (s *Session) Step(serve ServeStrategy) model.Side {
	s.P1Vel = applyInput(s.UpA, s.DownA, s.P1Vel)
	s.P2Vel = applyInput(s.UpB, s.DownB, s.P2Vel)

	s.P1Y = clamp(s.P1Y+s.P1Vel, 0, PaddleMaxY)
	s.P2Y = clamp(s.P2Y+s.P2Vel, 0, PaddleMaxY)

	if s.pendingServe {
		serve.Serve(s)
		s.pendingServe = false
		return ""
	}

	s.BallX += s.BallVX
	s.BallY += s.BallVY

	// Walls. The position is pinned so a slow ball cannot stick past the edge.
	if s.BallY <= 0 {
		s.BallY = 0
		s.BallVY = abs(s.BallVY)
	} else if s.BallY >= BallMaxY {
		s.BallY = BallMaxY
		s.BallVY = -abs(s.BallVY)
	}

	if s.BallX <= PaddleWidth && s.overlapsPaddle(s.P1Y) {
		s.BallX = PaddleWidth
		s.BallVX *= -HitSpeedUp
		s.BallVY *= HitSpeedUp
	}

	if s.BallX+BallWidth >= FieldSize-PaddleWidth && s.overlapsPaddle(s.P2Y) {
		s.BallX = FieldSize - PaddleWidth - BallWidth
		s.BallVX *= -HitSpeedUp
		s.BallVY *= HitSpeedUp
	}

	center := s.BallX + BallWidth/2
	switch {
	case center < 0:
		s.S2++
		serve.Serve(s)
		return model.SideP2
	case center > FieldSize:
		s.S1++
		serve.Serve(s)
		return model.SideP1
	}
	return ""
}

func (s *Session) overlapsPaddle(paddleY float64) bool {
	return s.BallY+BallHeight >= paddleY && s.BallY <= paddleY+PaddleHeight
}

// Snapshot returns the broadcast state; ball fields only while active
func (s *Session) Snapshot() protocol.Snapshot {
	snap := protocol.Snapshot{P1Y: s.P1Y, P2Y: s.P2Y, S1: s.S1, S2: s.S2}
	if s.Active {
		x, y := s.BallX, s.BallY
		snap.BallX = &x
		snap.BallY = &y
	}
	return snap
}

// Winner compares the scores
func (s *Session) Winner() model.Side {
	switch {
	case s.S1 > s.S2:
		return model.SideP1
	case s.S2 > s.S1:
		return model.SideP2
	default:
		return model.SideDraw
	}
}

// Score returns the score of the player in slot
func (s *Session) Score(slot int) int {
	if slot == 0 {
		return s.S1
	}
	return s.S2
}

func applyInput(up, down bool, vel float64) float64 {
	if up {
		vel -= PaddleAccel
	}
	if down {
		vel += PaddleAccel
	}
	if !up && !down {
		vel *= PaddleFriction
	}
	return clamp(vel, -PaddleMaxSpeed, PaddleMaxSpeed)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
