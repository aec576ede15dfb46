package trafficlight

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/entity"
	"github.com/tsinghua-fib-lab/agentsociety-tl-detector/utils/randengine"
)

var (
	classifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tl_classify_total",
		Help: "Light color classifications by provider and resulting color",
	}, []string{"provider", "color"})

	classifyFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tl_classify_fallback_total",
		Help: "Classifications that fell back to the ground-truth color",
	})
)

// allColors 颜色全集，下标即Color值
var allColors = []entity.Color{entity.ColorUnknown, entity.ColorRed, entity.ColorYellow, entity.ColorGreen}

// GroundTruthProvider 真值透传
// 说明：直接返回信号灯列表中自带的颜色，没有经过任何视觉识别。
// 这是降级实现，只适用于仿真与测试，不能当作真正的识别结果
type GroundTruthProvider struct{}

func (GroundTruthProvider) Classify(_ *entity.Image, light entity.TrafficLight) (entity.Color, error) {
	classifyTotal.WithLabelValues("ground_truth", light.State.String()).Inc()
	return light.State, nil
}

// NoisyProvider 带误判的颜色来源
// 功能：以给定概率把底层来源的结果替换为另一种颜色，模拟视觉识别的单帧误判
type NoisyProvider struct {
	base            entity.IColorProvider
	flipProbability float64
	generator       *randengine.Engine
}

// NewNoisyProvider 创建带误判的颜色来源
// 参数：base-底层颜色来源，flipProbability-误判概率，seed-随机种子
func NewNoisyProvider(base entity.IColorProvider, flipProbability float64, seed uint64) *NoisyProvider {
	return &NoisyProvider{
		base:            base,
		flipProbability: flipProbability,
		generator:       randengine.New(seed),
	}
}

// Classify 先由底层来源识别，再以flipProbability的概率均匀替换为其他三种颜色之一
func (p *NoisyProvider) Classify(img *entity.Image, light entity.TrafficLight) (entity.Color, error) {
	c, err := p.base.Classify(img, light)
	if err != nil {
		return entity.ColorUnknown, err
	}
	if p.generator.PTrue(p.flipProbability) {
		weight := make([]float64, len(allColors))
		for i, other := range allColors {
			if other != c {
				weight[i] = 1
			}
		}
		if i := p.generator.DiscreteDistribution(weight); i >= 0 {
			c = allColors[i]
		}
	}
	classifyTotal.WithLabelValues("noisy", c.String()).Inc()
	return c, nil
}

// FallbackProvider 带降级的颜色来源
// 功能：主来源失败时改用备用来源（通常为真值透传），保证每个周期都有颜色输入
type FallbackProvider struct {
	Primary  entity.IColorProvider
	Fallback entity.IColorProvider
}

func (p FallbackProvider) Classify(img *entity.Image, light entity.TrafficLight) (entity.Color, error) {
	c, err := p.Primary.Classify(img, light)
	if err == nil {
		return c, nil
	}
	classifyFallbackTotal.Inc()
	log.Warnf("classifier failed, falling back (reduced fidelity): %v", err)
	c, fallbackErr := p.Fallback.Classify(img, light)
	if fallbackErr != nil {
		return entity.ColorUnknown, fmt.Errorf("fallback classifier: %w (primary: %v)", fallbackErr, err)
	}
	return c, nil
}
