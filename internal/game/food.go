package game

// maxFoodAttempts bounds rejection sampling before falling back to a scan of the
// free cells. At 20x20 the fallback is practically never reached.
const maxFoodAttempts = 64

// PlaceFood picks a uniformly random cell not covered by snake.
// It reports false when the board is full.
func PlaceFood(rules Rules, snake []Position, rng Source) (Position, bool) {
	n := rules.GridSize
	if n <= 0 {
		return Position{}, false
	}
	taken := make(map[Position]struct{}, len(snake))
	for _, seg := range snake {
		taken[seg] = struct{}{}
	}

	for i := 0; i < maxFoodAttempts; i++ {
		p := Position{X: rng.IntN(n), Y: rng.IntN(n)}
		if _, ok := taken[p]; !ok {
			return p, true
		}
	}

	free := make([]Position, 0, n*n-len(taken))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			p := Position{X: x, Y: y}
			if _, ok := taken[p]; !ok {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		return Position{}, false
	}
	return free[rng.IntN(len(free))], true
}
