package entity

import (
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/clock"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	RuntimeConfig() *config.RuntimeConfig
}
