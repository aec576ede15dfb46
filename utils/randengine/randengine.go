// 随机数引擎，包装了golang.org/x/exp/rand，用于模拟颜色识别的误判
package randengine

import (
	"flag"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 说明：所有方法线程安全，同一种子产生相同序列，回放结果可复现
type Engine struct {
	rand *rand.Rand
	mtx  sync.Mutex
}

// New 创建随机数引擎
// 参数：seed-随机数种子，实际种子为seed加上命令行给定的偏移量
func New(seed uint64) *Engine {
	return &Engine{rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// Float64 随机生成[0.0, 1.0)范围内的浮点数
func (e *Engine) Float64() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.rand.Float64()
}

// PTrue 以概率p返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// DiscreteDistribution 按给定权重生成随机下标
// 参数：weight-权重数组，每个元素表示对应下标的相对概率
// 返回：[0, len(weight))内的下标；权重全为0时返回-1
// 算法说明：
// 1. 计算总权重，在[0, 总权重)内生成随机数
// 2. 累积权重直到超过随机数，返回对应下标
func (e *Engine) DiscreteDistribution(weight []float64) int {
	total := .0
	for _, w := range weight {
		total += w
	}
	if total <= 0 {
		return -1
	}
	random := total * e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return i
		}
	}
	// 浮点误差兜底：返回最后一个权重非0的下标
	for i := len(weight) - 1; i >= 0; i-- {
		if weight[i] > 0 {
			return i
		}
	}
	return -1
}
