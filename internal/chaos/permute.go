// Package chaos implements the bijective transform stages of the pattern
// pipeline: cat-map permutation, chaotic diffusion, and modular
// substitution. Every stage has an exact inverse for every valid
// parameter, and all stages are pure functions over their inputs.
package chaos

import "errors"

// Errors
var (
	ErrNotSquare     = errors.New("chaos: grid is not square")
	ErrBadModulus    = errors.New("chaos: modulus must be at least 2")
	ErrNotCoprime    = errors.New("chaos: multiplier is not coprime to modulus")
	ErrBadMultiplier = errors.New("chaos: multiplier must be positive")
)

// Permute applies the generalized cat map to a square grid:
// x' = (x+y) mod n, y' = (x+2y) mod n, repeated iterations times.
// The transformation matrix [[1,1],[1,2]] has determinant 1 mod n, so the
// map is a bijection on cell positions for every grid size and iteration
// count. Cell values are moved, never changed.
func Permute(grid [][]int, iterations int) ([][]int, error) {
	n, err := sideLen(grid)
	if err != nil {
		return nil, err
	}

	cur := copyGrid(grid)
	next := make([][]int, n)
	for i := range next {
		next[i] = make([]int, n)
	}

	for it := 0; it < iterations; it++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				nx := (x + y) % n
				ny := (x + 2*y) % n
				next[ny][nx] = cur[y][x]
			}
		}
		cur, next = next, cur
	}

	return cur, nil
}

// InvertPermute undoes Permute for the same iteration count. Each inverse
// step applies the inverse matrix [[2,-1],[-1,1]]:
// x = (2x'-y') mod n, y = (y'-x') mod n, with negative residues
// normalized into [0,n).
func InvertPermute(grid [][]int, iterations int) ([][]int, error) {
	n, err := sideLen(grid)
	if err != nil {
		return nil, err
	}

	cur := copyGrid(grid)
	next := make([][]int, n)
	for i := range next {
		next[i] = make([]int, n)
	}

	for it := 0; it < iterations; it++ {
		for py := 0; py < n; py++ {
			for px := 0; px < n; px++ {
				x := mod(2*px-py, n)
				y := mod(py-px, n)
				next[y][x] = cur[py][px]
			}
		}
		cur, next = next, cur
	}

	return cur, nil
}

// sideLen validates that the grid is square and returns its side length.
func sideLen(grid [][]int) (int, error) {
	n := len(grid)
	if n == 0 {
		return 0, ErrNotSquare
	}
	for _, row := range grid {
		if len(row) != n {
			return 0, ErrNotSquare
		}
	}
	return n, nil
}

func copyGrid(grid [][]int) [][]int {
	out := make([][]int, len(grid))
	for i, row := range grid {
		out[i] = make([]int, len(row))
		copy(out[i], row)
	}
	return out
}

// mod returns a mod n normalized into [0,n).
func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
