package isogrid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// VariogramModel names the semivariogram shape fitted by TrainKriging.
type VariogramModel string

const (
	VariogramGaussian    VariogramModel = "gaussian"
	VariogramExponential VariogramModel = "exponential"
	VariogramSpherical   VariogramModel = "spherical"
)

// MaxKrigingSamples bounds the size of the dense system TrainKriging solves.
const MaxKrigingSamples = 1500

const maxLags = 30

var ErrKrigingSamples = errors.New("isogrid: not enough distinct samples to fit a variogram")

// Kriging predicts values between samples from a fitted semivariogram.
type Kriging struct {
	Model  VariogramModel `json:"model"`
	Nugget float64        `json:"nugget"`
	Range  float64        `json:"range"`
	Sill   float64        `json:"sill"`
	A      float64        `json:"A"`

	samples Samples
	weights *mat.VecDense
	fn      func(h, nugget, rng, sill, a float64) float64
}

func variogramGaussian(h, nugget, rng, sill, a float64) float64 {
	x := -(1 / a) * (h / rng) * (h / rng)
	return nugget + ((sill-nugget)/rng)*(1-math.Exp(x))
}

func variogramExponential(h, nugget, rng, sill, a float64) float64 {
	x := -(1 / a) * (h / rng)
	return nugget + ((sill-nugget)/rng)*(1-math.Exp(x))
}

func variogramSpherical(h, nugget, rng, sill, a float64) float64 {
	if h > rng {
		return nugget + (sill-nugget)/rng
	}
	x := h / rng
	return nugget + ((sill-nugget)/rng)*(1.5*x-0.5*x*x*x)
}

// basis is the unit-sill shape of each model, used to fit nugget and sill.
func basis(model VariogramModel, x, a float64) float64 {
	switch model {
	case VariogramGaussian:
		return 1 - math.Exp(-(1/a)*x*x)
	case VariogramExponential:
		return 1 - math.Exp(-(1/a)*x)
	default:
		return 1.5*x - 0.5*x*x*x
	}
}

type lagPair struct {
	dist, semi float64
}

// TrainKriging fits model to the finite samples. sigma2 is the measurement
// variance added to the diagonal; alpha regularises the variogram fit.
func TrainKriging(samples Samples, model VariogramModel, sigma2, alpha float64) (*Kriging, error) {
	kri := &Kriging{Model: model, A: 1.0 / 3, samples: samples.Finite()}
	switch model {
	case VariogramGaussian:
		kri.fn = variogramGaussian
	case VariogramExponential:
		kri.fn = variogramExponential
	case VariogramSpherical:
		kri.fn = variogramSpherical
	default:
		return nil, fmt.Errorf("isogrid: unknown variogram model %q", model)
	}

	pts := kri.samples
	n := len(pts)
	if n < 3 {
		return nil, ErrKrigingSamples
	}
	if n > MaxKrigingSamples {
		return nil, fmt.Errorf("isogrid: %d samples exceed the kriging limit of %d", n, MaxKrigingSamples)
	}

	pairs := make([]lagPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			pairs = append(pairs, lagPair{
				dist: math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1]),
				semi: math.Abs(pts[i][2] - pts[j][2]),
			})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })

	lag, semi := binLags(pairs)
	if len(lag) < 2 {
		return nil, ErrKrigingSamples
	}
	kri.Range = lag[len(lag)-1] - lag[0]
	if !(kri.Range > 0) {
		return nil, ErrKrigingSamples
	}

	// Least squares for [nugget, slope] with a ridge term.
	l := len(lag)
	x := mat.NewDense(l, 2, nil)
	y := mat.NewVecDense(l, semi)
	for i := 0; i < l; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, basis(model, lag[i]/kri.Range, kri.A))
	}
	var z mat.Dense
	z.Mul(x.T(), x)
	z.Add(&z, mat.NewDiagDense(2, []float64{1 / alpha, 1 / alpha}))
	var zi mat.Dense
	if err := zi.Inverse(&z); err != nil {
		return nil, fmt.Errorf("fit variogram: %w", err)
	}
	var xty, w mat.VecDense
	xty.MulVec(x.T(), y)
	w.MulVec(&zi, &xty)

	kri.Nugget = w.AtVec(0)
	kri.Sill = w.AtVec(1)*kri.Range + kri.Nugget

	c := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			c.SetSym(i, j, kri.variogram(math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1])))
		}
		c.SetSym(i, i, kri.variogram(0)+sigma2)
	}
	t := mat.NewVecDense(n, nil)
	for i, p := range pts {
		t.SetVec(i, p[2])
	}

	kri.weights = mat.NewVecDense(n, nil)
	var chol mat.Cholesky
	if chol.Factorize(c) {
		if err := chol.SolveVecTo(kri.weights, t); err != nil {
			return nil, fmt.Errorf("solve kriging system: %w", err)
		}
	} else if err := kri.weights.SolveVec(c, t); err != nil {
		return nil, fmt.Errorf("solve kriging system: %w", err)
	}
	return kri, nil
}

// binLags averages sorted pairs into at most maxLags distance bins.
func binLags(pairs []lagPair) (lag, semi []float64) {
	if len(pairs) < maxLags {
		for _, p := range pairs {
			lag = append(lag, p.dist)
			semi = append(semi, p.semi)
		}
		return lag, semi
	}

	tolerance := pairs[len(pairs)-1].dist / maxLags
	j := 0
	for i := 0; i < maxLags && j < len(pairs); i++ {
		var sumLag, sumSemi float64
		k := 0
		for j < len(pairs) && pairs[j].dist <= float64(i+1)*tolerance {
			sumLag += pairs[j].dist
			sumSemi += pairs[j].semi
			j++
			k++
		}
		if k > 0 {
			lag = append(lag, sumLag/float64(k))
			semi = append(semi, sumSemi/float64(k))
		}
	}
	return lag, semi
}

func (kri *Kriging) variogram(h float64) float64 {
	return kri.fn(h, kri.Nugget, kri.Range, kri.Sill, kri.A)
}

// Predict estimates the value at planar position (x, z).
func (kri *Kriging) Predict(x, z float64) float64 {
	var sum float64
	for i, p := range kri.samples {
		sum += kri.variogram(math.Hypot(x-p[0], z-p[1])) * kri.weights.AtVec(i)
	}
	return sum
}
