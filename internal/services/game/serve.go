package game

import "github.com/mcoot/pong-realtime/internal/dependencies/random"

// ServeStrategy puts the ball back in the centre and gives it a velocity
type ServeStrategy interface {
	Serve(s *Session)
}

// AlternatingServe sends each serve the opposite way to the last one. The first
// serve and every vertical sign are chosen at random.
type AlternatingServe struct {
	Random random.Random
}

// Serve recentres the ball and sets its velocity
func (a AlternatingServe) Serve(s *Session) {
	s.BallX, s.BallY = BallStartX, BallStartY

	speed := s.BallSpeed
	if speed <= 0 {
		speed = 1
	}

	dir := 1.0
	switch s.LastServe {
	case ServeLeft:
		dir = 1
	case ServeRight:
		dir = -1
	default:
		if !a.Random.Coin() {
			dir = -1
		}
	}
	if dir > 0 {
		s.LastServe = ServeRight
	} else {
		s.LastServe = ServeLeft
	}

	vy := ServeBaseVY
	if !a.Random.Coin() {
		vy = -vy
	}

	s.BallVX = dir * ServeBaseVX * speed
	s.BallVY = vy * speed
}

// AimLevel selects how an AimedServe biases the vertical velocity
type AimLevel string

const (
	AimEasy   AimLevel = "easy"
	AimMedium AimLevel = "medium"
	AimHard   AimLevel = "hard"
)

// AimedServe serves like AlternatingServe, then on every serve after the first
// points the ball at a target. Hard aims at the right paddle's centre; medium aims
// halfway between both paddle centres at half the slope. Easy does not aim.
type AimedServe struct {
	Base  AlternatingServe
	Level AimLevel
}

// Serve recentres the ball and sets its velocity
func (a AimedServe) Serve(s *Session) {
	firstServe := s.LastServe == ServeNone
	a.Base.Serve(s)
	if firstServe {
		return
	}

	var target, slope float64
	switch a.Level {
	case AimHard:
		target = s.P2Y + PaddleHeight/2
		slope = 1
	case AimMedium:
		target = (s.P1Y + s.P2Y + PaddleHeight) / 2
		slope = 0.5
	default:
		return
	}

	delta := target - s.BallY
	if delta == 0 {
		return
	}
	magnitude := abs(s.BallVY) * slope
	if delta > 0 {
		s.BallVY = magnitude
	} else {
		s.BallVY = -magnitude
	}
}
