package pattern

import (
	"math/big"

	"latticelock/internal/chaos"
)

// LCG constants (Knuth's MMIX multiplier/increment).
const (
	lcgMul = 6364136223846793005
	lcgInc = 1442695040888963407
)

// multiStage is the canonical three-stage pipeline:
// seed -> grid init -> cat-map permutation -> logistic diffusion ->
// modular substitution -> alphabet reduction.
type multiStage struct{}

func (multiStage) Name() string { return "multistage" }

func (m multiStage) Generate(text string, length, numInks int) ([]int, error) {
	pr, sentinel, err := prepare(text, length, numInks)
	if err != nil {
		return nil, err
	}
	if sentinel != nil {
		return sentinel, nil
	}

	params := deriveParams(pr.seed, pr.size, pr.numInks)

	grid := initGrid(text, pr.seed, pr.size)
	grid, err = chaos.Permute(grid, params.PermutationIterations)
	if err != nil {
		return nil, err
	}

	flat := flatten(grid)
	for i := range flat {
		flat[i] %= pr.numInks
	}

	flat, err = chaos.Diffuse(flat, params.DiffusionSeed, pr.numInks)
	if err != nil {
		return nil, err
	}

	flat, err = chaos.Substitute(flat, params.SubstitutionMultiplier, pr.numInks)
	if err != nil {
		return nil, err
	}

	// Output alphabet guarantee. Substitution already reduces, but the
	// contract is enforced here, not assumed.
	for i := range flat {
		flat[i] %= pr.numInks
	}

	return flat, nil
}

// initGrid fills a size x size grid deterministically from the text and
// seed: a linear-congruential walk seeded by the low bits of the seed,
// each cell mixed with a rotating byte of the input text.
func initGrid(text string, s *big.Int, size int) [][]int {
	mask := new(big.Int).SetUint64(^uint64(0))
	state := new(big.Int).And(s, mask).Uint64()
	b := []byte(text)

	grid := make([][]int, size)
	for y := 0; y < size; y++ {
		grid[y] = make([]int, size)
		for x := 0; x < size; x++ {
			state = state*lcgMul + lcgInc
			cell := int((state >> 33) & 0xFF)
			cell ^= int(b[(y*size+x)%len(b)])
			grid[y][x] = cell
		}
	}
	return grid
}

// flatten converts a grid to its row-major sequence.
func flatten(grid [][]int) []int {
	out := make([]int, 0, len(grid)*len(grid))
	for _, row := range grid {
		out = append(out, row...)
	}
	return out
}
