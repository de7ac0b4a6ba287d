package rules

import "math"

// SignificanceTest computes the p-value of a sample against a hypothesised
// mean. ok is false when the test cannot be computed for the sample.
type SignificanceTest interface {
	PValue(samples []float64, mean0 float64) (p float64, ok bool)
}

// StudentT is a two-sided one-sample Student t-test.
type StudentT struct{}

// PValue returns the two-sided p-value of a one-sample t-test.
// A zero-variance sample is significant when its mean differs from mean0.
func (StudentT) PValue(samples []float64, mean0 float64) (float64, bool) {
	n := len(samples)
	if n < 2 {
		return 0, false
	}

	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= float64(n)

	ss := 0.0
	for _, s := range samples {
		d := s - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(n-1))
	if sd == 0 {
		if mean == mean0 {
			return 1, true
		}
		return 0, true
	}

	t := (mean - mean0) / (sd / math.Sqrt(float64(n)))
	df := float64(n - 1)
	p := regIncBeta(df/2, 0.5, df/(df+t*t))
	return p, true
}

// regIncBeta is the regularised incomplete beta function I_x(a, b).
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	front := math.Exp(lab - la - lb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

// betaCF evaluates the continued fraction for the incomplete beta function
// with the modified Lentz method.
func betaCF(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		fpmin   = 1e-300
	)

	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < fpmin {
		d = fpmin
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = 1 + aa/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}
