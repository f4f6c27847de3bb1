package privacy

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"candig/metadata/models"
	"candig/metadata/models/dtos"
)

/*
	Differential privacy layer. Count-mode buckets are perturbed
	with integer Laplace noise at the dataset's epsilon ; record
	mode output is never touched. The noise source is an interface
	so tests can seed it deterministically.
*/

type NoiseSource interface {
	// Laplace draws from Laplace(0, scale)
	Laplace(scale float64) float64
}

type laplaceSource struct {
	mux sync.Mutex
	rng *rand.Rand
}

// NewLaplaceSource returns a PRNG-backed noise source ; a zero seed
// draws one from the wall clock.
func NewLaplaceSource(seed int64) NoiseSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &laplaceSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *laplaceSource) Laplace(scale float64) float64 {
	s.mux.Lock()
	defer s.mux.Unlock()

	uniform := s.rng.Float64() - 0.5
	sign := 1.0
	if uniform < 0 {
		sign = -1.0
	}
	return -scale * sign * math.Log(1-2*math.Abs(uniform))
}

type Service struct {
	defaultEpsilon  float64
	datasetEpsilons map[string]float64
	noise           NoiseSource
}

func NewPrivacyService(cfg *models.Config, noise NoiseSource) *Service {
	return &Service{
		defaultEpsilon:  cfg.Privacy.DpEpsilon,
		datasetEpsilons: cfg.Privacy.DatasetEpsilons,
		noise:           noise,
	}
}

// EpsilonFor resolves a dataset's privacy budget ; a value <= 0
// stands for an epsilon of +inf, i.e. perturbation disabled.
func (s *Service) EpsilonFor(datasetName string) float64 {
	if epsilon, ok := s.datasetEpsilons[datasetName]; ok {
		return epsilon
	}
	return s.defaultEpsilon
}

// Perturb adds floor(Laplace(0, 1/epsilon)) to every count bucket
// in place, clamped to a lower bound of 1 so that a perturbed count
// never reads as empty. Sensitivity is fixed at 1 : these are
// counting queries over disjoint records. Non-count values in the
// result are left untouched.
func (s *Service) Perturb(result dtos.QueryResult, datasetName string) {
	epsilon := s.EpsilonFor(datasetName)
	if epsilon <= 0 || math.IsInf(epsilon, 1) {
		return
	}
	scale := 1.0 / epsilon

	for _, tableResult := range result {
		entries, ok := tableResult.([]dtos.FieldCounts)
		if ok {
			for _, entry := range entries {
				s.perturbEntry(entry, scale)
			}
		}
	}
}

func (s *Service) perturbEntry(entry dtos.FieldCounts, scale float64) {
	for _, buckets := range entry {
		for value, count := range buckets {
			perturbed := count + int(math.Floor(s.noise.Laplace(scale)))
			if perturbed < 1 {
				perturbed = 1
			}
			buckets[value] = perturbed
		}
	}
}
