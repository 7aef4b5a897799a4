package particle_test

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/partsim/internal/particle"
)

const eps = 1e-9

func mustAdd(reg *particle.Registry, name string, mass float64, charge int, width float64) int {
	GinkgoHelper()
	idx, err := reg.Add(name, mass, charge, width)
	Expect(err).NotTo(HaveOccurred())
	return idx
}

func mustEnergy(p particle.Particle) float64 {
	GinkgoHelper()
	e, err := p.Energy()
	Expect(err).NotTo(HaveOccurred())
	return e
}

// chiSquareUniform bins values in [lo, hi) and returns the chi-square against a flat distribution.
func chiSquareUniform(values []float64, lo, hi float64, bins int) float64 {
	counts := make([]float64, bins)
	for _, v := range values {
		i := int((v - lo) / (hi - lo) * float64(bins))
		if i == bins {
			i--
		}
		counts[i]++
	}
	expected := float64(len(values)) / float64(bins)
	chi2 := 0.0
	for _, c := range counts {
		chi2 += (c - expected) * (c - expected) / expected
	}
	return chi2
}

var _ = Describe("DecayTwoBody", func() {
	var (
		reg *particle.Registry
		rng *rand.Rand
		a   int
		b   int
		r   int
	)

	BeforeEach(func() {
		reg = particle.NewRegistry(particle.DefaultMaxSpecies)
		a = mustAdd(reg, "A", 0.5, 1, 0)
		b = mustAdd(reg, "B", 0.5, -1, 0)
		r = mustAdd(reg, "R", 1.2, 0, 0.1)
		rng = rand.New(rand.NewSource(314234))
	})

	Context("parent at rest", func() {
		It("produces back-to-back products with the parent mass", func() {
			parent, err := particle.NewWith(reg, "R", 0, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			pa, pb, err := particle.DecayTwoBody(parent, "A", "B", rng)
			Expect(err).NotTo(HaveOccurred())

			Expect(pa.P()).To(BeNumerically("~", pb.P(), eps))
			Expect(pa.P()).To(BeNumerically("~", math.Sqrt(1.44-1)/2, eps))

			m, err := pa.InvariantMass(pb)
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(BeNumerically("~", 1.2, eps))
		})

		It("binds the requested product species", func() {
			parent, _ := particle.NewWith(reg, "R", 0, 0, 0)
			pa, pb, err := particle.DecayTwoBody(parent, "A", "B", rng)
			Expect(err).NotTo(HaveOccurred())

			Expect(pa.SpeciesIndex()).To(Equal(a))
			Expect(pb.SpeciesIndex()).To(Equal(b))
			Expect(pa.Charge()).To(Equal(1))
			Expect(pb.Charge()).To(Equal(-1))
		})
	})

	Context("four-momentum conservation", func() {
		It("holds for moving parents over many trials", func() {
			for i := 0; i < 5000; i++ {
				parent := particle.New(reg)
				Expect(parent.SetSpeciesIndex(r)).To(Succeed())
				Expect(parent.SetMomentum(3*rng.NormFloat64(), 3*rng.NormFloat64(), 3*rng.NormFloat64())).To(Succeed())

				pa, pb, err := particle.Decayer{}.Decay(parent, a, b, rng)
				Expect(err).NotTo(HaveOccurred())

				sum := pa.Momentum().Add(pb.Momentum())
				Expect(sum.Sub(parent.Momentum()).Norm()).To(BeNumerically("<", eps))
				Expect(mustEnergy(pa) + mustEnergy(pb)).To(BeNumerically("~", mustEnergy(parent), eps))
			}
		})

		It("holds for asymmetric product masses", func() {
			kstar := mustAdd(reg, "K*", 0.89166, 0, 0.05)
			pion := mustAdd(reg, "pi+", 0.13957, 1, 0)
			kaon := mustAdd(reg, "K-", 0.49367, -1, 0)

			for i := 0; i < 2000; i++ {
				parent := particle.New(reg)
				Expect(parent.SetSpeciesIndex(kstar)).To(Succeed())
				Expect(parent.SetMomentum(rng.ExpFloat64(), -rng.ExpFloat64(), 2*rng.NormFloat64())).To(Succeed())

				pa, pb, err := particle.Decayer{}.Decay(parent, pion, kaon, rng)
				Expect(err).NotTo(HaveOccurred())

				sum := pa.Momentum().Add(pb.Momentum())
				Expect(sum.Sub(parent.Momentum()).Norm()).To(BeNumerically("<", eps))
				Expect(mustEnergy(pa) + mustEnergy(pb)).To(BeNumerically("~", mustEnergy(parent), eps))

				m, _ := pa.InvariantMass(pb)
				Expect(m).To(BeNumerically("~", 0.89166, 1e-8))
			}
		})

		It("leaves the parent unchanged", func() {
			parent, _ := particle.NewWith(reg, "R", 0.4, -0.2, 1.1)
			before := parent.Momentum()

			_, _, err := particle.DecayTwoBody(parent, "A", "B", rng)
			Expect(err).NotTo(HaveOccurred())

			Expect(parent.Momentum()).To(Equal(before))
			Expect(parent.SpeciesIndex()).To(Equal(r))
		})

		It("holds for parents whose squared momentum overflows", func() {
			parent, err := particle.NewWith(reg, "R", 1e160, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(math.IsInf(parent.P(), 0)).To(BeFalse())
			e := mustEnergy(parent)
			Expect(math.IsInf(e, 0)).To(BeFalse())

			pa, pb, err := particle.DecayTwoBody(parent, "A", "B", rng)
			Expect(err).NotTo(HaveOccurred())

			sum := pa.Momentum().Add(pb.Momentum())
			Expect(sum.Sub(parent.Momentum()).Norm() / parent.P()).To(BeNumerically("<", eps))
			Expect((mustEnergy(pa) + mustEnergy(pb)) / e).To(BeNumerically("~", 1, eps))
		})
	})

	Context("isotropy", func() {
		It("emits uniformly in cos(theta) and phi in the rest frame", func() {
			parent, _ := particle.NewWith(reg, "R", 0, 0, 0)

			const n = 40000
			cosines := make([]float64, 0, n)
			phis := make([]float64, 0, n)
			for i := 0; i < n; i++ {
				pa, _, err := particle.DecayTwoBody(parent, "A", "B", rng)
				Expect(err).NotTo(HaveOccurred())
				p := pa.Momentum()
				cosines = append(cosines, p.Z/p.Norm())
				phi := math.Atan2(p.Y, p.X)
				if phi < 0 {
					phi += 2 * math.Pi
				}
				phis = append(phis, phi)
			}

			// 19 degrees of freedom; 99.9% quantile is 43.8
			Expect(chiSquareUniform(cosines, -1, 1, 20)).To(BeNumerically("<", 43.8))
			Expect(chiSquareUniform(phis, 0, 2*math.Pi, 20)).To(BeNumerically("<", 43.8))

			mean, mean2 := 0.0, 0.0
			for _, c := range cosines {
				mean += c
				mean2 += c * c
			}
			Expect(mean / n).To(BeNumerically("~", 0, 0.02))
			Expect(mean2 / n).To(BeNumerically("~", 1.0/3, 0.02))
		})
	})

	Context("kinematically forbidden decays", func() {
		It("fails before producing output", func() {
			mustAdd(reg, "light", 0.9, 0, 0.1)
			parent, _ := particle.NewWith(reg, "light", 0, 0, 1)

			for i := 0; i < 100; i++ {
				pa, pb, err := particle.DecayTwoBody(parent, "A", "B", rng)
				Expect(errors.Is(err, particle.ErrKinematicallyForbidden)).To(BeTrue())
				Expect(pa.Bound()).To(BeFalse())
				Expect(pb.Bound()).To(BeFalse())
			}
		})

		It("reports the masses involved", func() {
			mustAdd(reg, "light", 0.9, 0, 0.1)
			parent, _ := particle.NewWith(reg, "light", 0, 0, 0)

			_, _, err := particle.DecayTwoBody(parent, "A", "B", rng)
			var de *particle.DecayError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Parent).To(Equal("light"))
			Expect(de.ParentMass).To(Equal(0.9))
			Expect(de.MassA + de.MassB).To(Equal(1.0))
		})

		It("does not consume random numbers", func() {
			mustAdd(reg, "light", 0.9, 0, 0.1)
			parent, _ := particle.NewWith(reg, "light", 0, 0, 0)
			src := rand.New(rand.NewSource(1))
			ref := rand.New(rand.NewSource(1))

			_, _, err := particle.DecayTwoBody(parent, "A", "B", src)
			Expect(err).To(HaveOccurred())
			Expect(src.Float64()).To(Equal(ref.Float64()))
		})
	})

	Context("invalid inputs", func() {
		It("rejects an unbound parent", func() {
			_, _, err := particle.DecayTwoBody(particle.New(reg), "A", "B", rng)
			Expect(err).To(MatchError(particle.ErrUnboundSpecies))

			_, _, err = particle.Decayer{}.Decay(particle.New(reg), a, b, rng)
			Expect(err).To(MatchError(particle.ErrUnboundSpecies))
		})

		It("rejects unknown products", func() {
			parent, _ := particle.NewWith(reg, "R", 0, 0, 0)

			_, _, err := particle.DecayTwoBody(parent, "A", "Z", rng)
			Expect(errors.Is(err, particle.ErrUnknownSpecies)).To(BeTrue())

			_, _, err = particle.Decayer{}.Decay(parent, a, 42, rng)
			Expect(errors.Is(err, particle.ErrUnknownSpecies)).To(BeTrue())
		})

		It("rejects a parent whose energy is not finite", func() {
			parent, err := particle.NewWith(reg, "R", math.MaxFloat64, math.MaxFloat64, 0)
			Expect(err).NotTo(HaveOccurred())

			pa, pb, err := particle.DecayTwoBody(parent, "A", "B", rng)
			Expect(err).To(MatchError(particle.ErrInvalidValue))
			Expect(pa.Momentum()).To(BeZero())
			Expect(pb.Momentum()).To(BeZero())
		})
	})

	Context("Breit-Wigner smearing", func() {
		It("samples parent masses around the nominal mass with the species width", func() {
			kstar := mustAdd(reg, "K*", 0.89166, 0, 0.050)
			pion := mustAdd(reg, "pi+", 0.13957, 1, 0)
			kaon := mustAdd(reg, "K-", 0.49367, -1, 0)
			d := particle.Decayer{Smear: true}

			const n = 20000
			masses := make([]float64, 0, n)
			for i := 0; i < n; i++ {
				parent := particle.New(reg)
				Expect(parent.SetSpeciesIndex(kstar)).To(Succeed())
				Expect(parent.SetMomentum(0.5, 0.2, -0.7)).To(Succeed())

				pa, pb, err := d.Decay(parent, pion, kaon, rng)
				Expect(err).NotTo(HaveOccurred())

				sum := pa.Momentum().Add(pb.Momentum())
				Expect(sum.Sub(parent.Momentum()).Norm()).To(BeNumerically("<", eps))

				m, _ := pa.InvariantMass(pb)
				Expect(m).To(BeNumerically(">=", 0.13957+0.49367-eps))
				masses = append(masses, m)
			}

			sort.Float64s(masses)
			median := masses[n/2]
			iqr := masses[3*n/4] - masses[n/4]
			Expect(median).To(BeNumerically("~", 0.89166, 0.01))
			Expect(iqr).To(BeNumerically("~", 0.050, 0.015))
		})

		It("keeps the nominal mass for stable species", func() {
			heavy := mustAdd(reg, "H", 2.0, 0, 0)
			parent := particle.New(reg)
			Expect(parent.SetSpeciesIndex(heavy)).To(Succeed())

			pa, pb, err := particle.Decayer{Smear: true}.Decay(parent, a, b, rng)
			Expect(err).NotTo(HaveOccurred())
			m, _ := pa.InvariantMass(pb)
			Expect(m).To(BeNumerically("~", 2.0, eps))
		})

		It("centres samples on the requested mass", func() {
			const n = 10001
			draws := make([]float64, n)
			for i := range draws {
				draws[i] = particle.BreitWigner(1.0, 0.2, rng)
			}
			sort.Float64s(draws)
			Expect(draws[n/2]).To(BeNumerically("~", 1.0, 0.01))
		})
	})

	Context("parallel workers", func() {
		It("decays safely against a shared read-only registry", func() {
			const workers = 8
			var wg sync.WaitGroup
			failures := make([]int, workers)

			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					local := rand.New(rand.NewSource(int64(id)))
					for i := 0; i < 500; i++ {
						parent := particle.New(reg)
						parent.SetSpeciesIndex(r)
						parent.SetMomentum(local.NormFloat64(), local.NormFloat64(), local.NormFloat64())

						pa, pb, err := particle.Decayer{}.Decay(parent, a, b, local)
						if err != nil {
							failures[id]++
							continue
						}
						sum := pa.Momentum().Add(pb.Momentum())
						if sum.Sub(parent.Momentum()).Norm() > eps {
							failures[id]++
						}
					}
				}(w)
			}
			wg.Wait()

			for _, f := range failures {
				Expect(f).To(BeZero())
			}
		})
	})
})
