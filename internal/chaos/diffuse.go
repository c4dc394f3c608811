package chaos

import "math/big"

// Diffuse masks every value with a logistic-map keystream. The operation
// is its own inverse: applying Diffuse twice with the same seed and
// modulus returns the original sequence.
//
// When modulus is a power of two the mask is bitwise XOR, which is closed
// over [0,modulus). For any other alphabet size XOR is not a bijection on
// [0,modulus), so the stage uses the subtractive mix
// out = (key - v) mod modulus, which is exactly self-inverse over Z_k for
// every k.
func Diffuse(values []int, seed *big.Int, modulus int) ([]int, error) {
	if modulus < 2 {
		return nil, ErrBadModulus
	}

	key := LogisticKeystream(seed, modulus, len(values))
	out := make([]int, len(values))

	if isPowerOfTwo(modulus) {
		for i, v := range values {
			out[i] = (v ^ key[i]) % modulus
		}
		return out, nil
	}

	for i, v := range values {
		out[i] = mod(key[i]-v, modulus)
	}
	return out, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
