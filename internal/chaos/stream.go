package chaos

import "math/big"

// Keystream tuning constants. The logistic parameter sits just under 4 to
// stay inside the fully chaotic regime without touching the degenerate
// boundary; the tent parameter sits just under 2 for the same reason.
const (
	logisticR = 3.99
	tentMu    = 1.9999

	// seedModulus folds the wide seed into an initial condition. Prime,
	// so nearby seeds land on distinct orbits.
	seedModulus = 9973

	// catLattice is the side length of the torus the cat-map stream
	// walks on. Prime and large enough that orbits exceed any pattern
	// length this package produces.
	catLattice = 65521
)

// normalizeSeed folds a wide seed into an initial condition in (0,1),
// clamped away from the unstable fixed points near 0 and 1.
func normalizeSeed(seed *big.Int) float64 {
	m := new(big.Int).Mod(seed, big.NewInt(seedModulus))
	x := float64(m.Int64()) / seedModulus
	if x < 0.05 {
		x = 0.05
	}
	if x > 0.95 {
		x = 0.95
	}
	return x
}

// LogisticKeystream iterates x <- r*x*(1-x) from a seed-derived initial
// condition and maps each state into [0,modulus) by floor(x*modulus).
// Fully deterministic: same seed, modulus and length always produce the
// same stream.
func LogisticKeystream(seed *big.Int, modulus, n int) []int {
	x := normalizeSeed(seed)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		x = logisticR * x * (1 - x)
		out[i] = int(x*float64(modulus)) % modulus
	}
	return out
}

// TentKeystream iterates the tent map x <- mu*min(x, 1-x) and maps each
// state into [0,modulus).
func TentKeystream(seed *big.Int, modulus, n int) []int {
	x := normalizeSeed(seed)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if x < 0.5 {
			x = tentMu * x
		} else {
			x = tentMu * (1 - x)
		}
		out[i] = int(x*float64(modulus)) % modulus
	}
	return out
}

// CatKeystream walks the cat map over a fixed integer torus and emits the
// x coordinate reduced into [0,modulus). Integer-only, so it carries no
// floating-point behavior at all.
func CatKeystream(seed *big.Int, modulus, n int) []int {
	lat := big.NewInt(catLattice)
	x := int(new(big.Int).Mod(seed, lat).Int64())
	y := int(new(big.Int).Mod(new(big.Int).Div(seed, lat), lat).Int64())
	if x == 0 && y == 0 {
		y = 1
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		x, y = (x+y)%catLattice, (x+2*y)%catLattice
		out[i] = x % modulus
	}
	return out
}
