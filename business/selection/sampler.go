package selection

import (
	crand "crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"captionSelector/domain"
)

// RandomSource is the randomness used by the posterior sampler. Each
// selection request gets its own source; implementations need not be safe
// for concurrent use.
type RandomSource interface {
	// NextUniform returns a draw from [0, 1).
	NextUniform() float64
	// NextGaussian returns a draw from N(0, 1).
	NextGaussian() float64
}

// SourceFactory builds a fresh RandomSource for one request. The request
// carries its resolved target date.
type SourceFactory func(req domain.SelectionRequest) RandomSource

func entropyFactory(domain.SelectionRequest) RandomSource {
	return NewEntropySource()
}

// SeededFactory derives each request's stream from seed and a hash of
// (creator, target date), so a seeded run replays identically however
// requests are scheduled.
func SeededFactory(seed uint64) SourceFactory {
	return func(req domain.SelectionRequest) RandomSource {
		return NewSeededSource(seed, requestStream(req))
	}
}

func requestStream(req domain.SelectionRequest) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(req.CreatorID + ":" + domain.TruncateDate(req.TargetDate).Format(domain.DateLayout)))
	return h.Sum64()
}

type boxMullerSource struct {
	rng *rand.Rand
}

// NewEntropySource returns a source seeded from crypto/rand.
func NewEntropySource() RandomSource {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic("selection: read entropy: " + err.Error())
	}
	return NewSeededSource(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
}

// NewSeededSource returns a deterministic source, for tests and replays.
func NewSeededSource(seed1, seed2 uint64) RandomSource {
	return &boxMullerSource{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (s *boxMullerSource) NextUniform() float64 {
	return s.rng.Float64()
}

// NextGaussian uses the Box-Muller transform over two uniform draws.
func (s *boxMullerSource) NextGaussian() float64 {
	u1 := 1 - s.rng.Float64() // (0, 1], keeps the log finite
	u2 := s.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// ThompsonSample draws a success-rate sample around the Wilson midpoint,
// scaled by the interval width and clamped back into the interval.
func ThompsonSample(successes, failures int, src RandomSource) (float64, ConfidenceBounds) {
	b := WilsonBounds(successes, failures)
	v := b.Midpoint() + src.NextGaussian()*b.Width
	return clamp(v, math.Max(0, b.Lower), math.Min(1, b.Upper)), b
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
