package clock

import (
	"time"

	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return System{} }),
)

// Clock abstracts the wall clock so window arithmetic can be tested.
type Clock interface {
	Now() time.Time
}

// System reads the real UTC time.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}
