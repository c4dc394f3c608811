package pattern

import (
	"math/big"

	"latticelock/internal/chaos"
)

// diffusionTweak separates the diffusion keystream's seed from the master
// seed so the two stages never share an orbit.
const diffusionTweak = 0x5DEECE66D

// StageParams are the per-input parameters of the multi-stage pipeline.
// They are recomputed from (seed, size, numInks) on every call, at
// generation and at verification alike; nothing here is ever stored.
type StageParams struct {
	PermutationIterations  int
	DiffusionSeed          *big.Int
	SubstitutionMultiplier int
}

// deriveParams computes the stage parameters deterministically.
//
// Iterations scale with grid size (base = 4 + size/4) plus a seed-driven
// offset bounded by the base, so larger grids mix more while staying far
// below the cat map's return-to-identity period for every size <= 32.
// The multiplier is picked from the set coprime to numInks; when that set
// is empty (numInks == 2) substitution degrades to the identity, which
// keeps the stage well-defined without violating the coprimality rule.
func deriveParams(seed *big.Int, size, numInks int) StageParams {
	base := 4 + size/4
	offset := new(big.Int).Mod(seed, big.NewInt(int64(base))).Int64()

	mult := 1
	if valid := chaos.ValidMultipliers(numInks); len(valid) > 0 {
		idx := new(big.Int).Mod(seed, big.NewInt(int64(len(valid)))).Int64()
		mult = valid[idx]
	}

	return StageParams{
		PermutationIterations:  base + int(offset),
		DiffusionSeed:          new(big.Int).Xor(seed, big.NewInt(diffusionTweak)),
		SubstitutionMultiplier: mult,
	}
}
