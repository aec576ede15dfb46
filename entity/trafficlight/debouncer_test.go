package trafficlight_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/trafficlight"
)

const (
	red     = entity.ColorRed
	green   = entity.ColorGreen
	yellow  = entity.ColorYellow
	unknown = entity.ColorUnknown
)

// feed 依次输入观测，返回每个周期的发布值
func feed(d *trafficlight.Debouncer, candidate int32, observed ...entity.Color) []int32 {
	out := make([]int32, len(observed))
	for i, c := range observed {
		out[i], _ = d.Update(c, candidate)
	}
	return out
}

func TestDebounceNeedsThreeConsecutive(t *testing.T) {
	d := trafficlight.NewDebouncer(3)
	out := feed(d, 7, red, red, green, red, red, red)
	assert.Equal(t, []int32{-1, -1, -1, -1, -1, 7}, out)
	assert.Equal(t, red, d.State().Stable)
}

func TestDebounceCommitFlag(t *testing.T) {
	d := trafficlight.NewDebouncer(3)
	for i := 0; i < 2; i++ {
		_, committed := d.Update(red, 5)
		assert.False(t, committed)
	}
	wp, committed := d.Update(red, 5)
	assert.True(t, committed)
	assert.Equal(t, int32(5), wp)
	// 持续相同颜色，每个周期都重新提交（候选点可以随位置变化）
	wp, committed = d.Update(red, 6)
	assert.True(t, committed)
	assert.Equal(t, int32(6), wp)
}

func TestDebounceSingleFrameFlipKeepsStop(t *testing.T) {
	d := trafficlight.NewDebouncer(3)
	feed(d, 42, red, red, red)
	assert.Equal(t, int32(42), d.State().LastPublished)

	out := feed(d, 42, green, red, red)
	assert.Equal(t, []int32{42, 42, 42}, out)
	assert.Equal(t, red, d.State().Stable)

	// 绿灯持续3个周期才解除停车
	out = feed(d, 42, green, green, green)
	assert.Equal(t, []int32{42, 42, -1}, out)
	assert.Equal(t, green, d.State().Stable)
}

func TestDebounceNonRedCommitsNoStop(t *testing.T) {
	d := trafficlight.NewDebouncer(3)
	feed(d, 9, red, red, red)
	out := feed(d, 9, yellow, yellow, yellow)
	assert.Equal(t, []int32{9, 9, -1}, out)
}

func TestDebounceUnknownIsCounted(t *testing.T) {
	d := trafficlight.NewDebouncer(3)
	feed(d, 3, red, red, red)
	// 信号灯暂时丢失：UNKNOWN也要连续3次才生效
	out := feed(d, entity.NoStop, unknown, unknown)
	assert.Equal(t, []int32{3, 3}, out)
	out = feed(d, entity.NoStop, unknown)
	assert.Equal(t, []int32{-1}, out)
	assert.Equal(t, unknown, d.State().Stable)
}

func TestDebounceCounterResets(t *testing.T) {
	d := trafficlight.NewDebouncer(3)
	feed(d, 1, red, red)
	assert.Equal(t, 2, d.State().Count)
	feed(d, 1, green)
	assert.Equal(t, 1, d.State().Count)
	assert.Equal(t, green, d.State().Observed)
}

func TestDebounceDefaultsAndReset(t *testing.T) {
	d := trafficlight.NewDebouncer(0)
	assert.Equal(t, trafficlight.DefaultThreshold, d.Threshold())
	feed(d, 4, red, red, red)
	d.Reset()
	assert.Equal(t, trafficlight.DebounceState{
		Observed:      unknown,
		Stable:        unknown,
		LastPublished: entity.NoStop,
	}, d.State())
}

func TestDebounceCustomThreshold(t *testing.T) {
	d := trafficlight.NewDebouncer(5)
	out := feed(d, 2, red, red, red, red, red)
	assert.Equal(t, []int32{-1, -1, -1, -1, 2}, out)
}
