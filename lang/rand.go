package lang

import (
	"fmt"
	"os"
	"time"

	"github.com/segmentio/fasthash/fnv1a"
)

// kiss is the "keep it simple stupid" combination generator: a linear
// congruential generator, a xorshift generator, and a multiply-with-carry
// generator summed together.
type kiss struct {
	x, y, z, w, carry uint32
}

func (k *kiss) seed(s uint32) {
	k.x = s | 1
	k.y = s | 2
	k.z = s | 4
	k.w = s | 8
	k.carry = 0
}

func (k *kiss) next() uint32 {
	k.x = k.x*69069 + 1

	k.y ^= k.y << 13
	k.y ^= k.y >> 17
	k.y ^= k.y << 5

	t := (k.z >> 2) + (k.w >> 3) + (k.carry >> 2)
	m := k.w + k.w + k.z + k.carry

	k.z = k.w
	k.w = m
	k.carry = t >> 30

	return k.x + k.y + k.w
}

// identity derives a seed from the clock, the process, and the evaluator
// itself, so evaluators started in the same second still differ.
func (e *Evaluator) identity() uint32 {
	s := uint32(time.Now().Unix())
	s = (s << 16) ^ s ^ uint32(os.Getpid()<<1)

	h := fnv1a.AddString64(fnv1a.Init64, fmt.Sprintf("%p", e))
	h = fnv1a.AddString64(h, e.name)

	return s ^ uint32(h) ^ uint32(h>>32)
}
