package service

import (
	"time"
)

const (
	DefaultHoldTTL   = 30 * time.Minute
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type settings struct {
	now     func() time.Time
	loc     *time.Location
	holdTTL time.Duration
}

type Option func(*settings)

// WithClock подменяет текущее время, в основном для тестов
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation задаёт часовой пояс, в котором трактуются due_date и due_time
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithHoldTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.holdTTL = ttl
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		now:     time.Now,
		loc:     defaultLocation(),
		holdTTL: DefaultHoldTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}
