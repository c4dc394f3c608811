package chaos

// Substitute relabels every value by modular multiplication:
// out = (v * multiplier) mod modulus. The multiplier must be coprime to
// the modulus; anything else is a configuration error, rejected here
// rather than silently degraded.
func Substitute(values []int, multiplier, modulus int) ([]int, error) {
	if err := checkMultiplier(multiplier, modulus); err != nil {
		return nil, err
	}

	out := make([]int, len(values))
	for i, v := range values {
		out[i] = mod(v*multiplier, modulus)
	}
	return out, nil
}

// InvertSubstitute undoes Substitute using the modular multiplicative
// inverse of the multiplier.
func InvertSubstitute(values []int, multiplier, modulus int) ([]int, error) {
	if err := checkMultiplier(multiplier, modulus); err != nil {
		return nil, err
	}

	inv := modInverse(multiplier, modulus)
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = mod(v*inv, modulus)
	}
	return out, nil
}

// ValidMultipliers returns the multipliers in [2,modulus) coprime to
// modulus, in ascending order. For modulus 5 this is {2,3,4}. The result
// may be empty (modulus 2), in which case callers fall back to the
// identity multiplier 1.
func ValidMultipliers(modulus int) []int {
	var out []int
	for m := 2; m < modulus; m++ {
		if gcd(m, modulus) == 1 {
			out = append(out, m)
		}
	}
	return out
}

func checkMultiplier(multiplier, modulus int) error {
	if modulus < 2 {
		return ErrBadModulus
	}
	if multiplier < 1 {
		return ErrBadMultiplier
	}
	if gcd(multiplier%modulus, modulus) != 1 {
		return ErrNotCoprime
	}
	return nil
}

// modInverse returns the multiplicative inverse of a mod n via the
// extended Euclidean algorithm. Callers guarantee gcd(a,n) == 1.
func modInverse(a, n int) int {
	a = mod(a, n)
	t, newT := 0, 1
	r, newR := n, a
	for newR != 0 {
		q := r / newR
		t, newT = newT, t-q*newT
		r, newR = newR, r-q*newR
	}
	return mod(t, n)
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
