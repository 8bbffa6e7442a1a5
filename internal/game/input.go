package game

// Input is the player's intent for one tick. Left, Right and Interact are
// edges: true only on the tick the press happened. Wind, Set and Drink are
// levels held across ticks.
type Input struct {
	Left     bool
	Right    bool
	Interact bool
	Wind     bool
	Set      bool
	Drink    bool
}

// direction folds the two movement edges into -1, 0 or +1.
func (in Input) direction() int {
	d := 0
	if in.Left {
		d--
	}
	if in.Right {
		d++
	}
	return d
}
