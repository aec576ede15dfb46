package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity/detector"
)

func TestChanPublisherKeepsLatest(t *testing.T) {
	p := detector.NewChanPublisher()
	p.Publish(1, -1)
	p.Publish(2, 5)
	p.Publish(3, 7)
	got := <-p.C()
	assert.Equal(t, detector.Publication{Cycle: 3, Waypoint: 7}, got)
	select {
	case extra := <-p.C():
		t.Fatalf("unexpected publication %v", extra)
	default:
	}
}

func TestMultiAndRecorder(t *testing.T) {
	a, b := &detector.Recorder{}, &detector.Recorder{}
	m := detector.Multi{a, b, &detector.LogPublisher{}}
	m.Publish(1, -1)
	m.Publish(2, 4)
	m.Publish(3, 4)
	assert.Equal(t, []int32{-1, 4, 4}, a.Waypoints())
	assert.Equal(t, a.History(), b.History())

	var empty detector.Recorder
	_, ok := empty.Last()
	assert.False(t, ok)
}
