package game

// Result classifies an Outcome.
type Result uint8

const (
	Ongoing Result = iota
	Win
	Draw
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Line is three collinear cell indices.
type Line [3]int

// Lines holds every winning line in detection order: rows, columns, diagonals.
var Lines = [8]Line{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Outcome is Ongoing, Win(Winner, Line) or Draw.
type Outcome struct {
	Result Result
	Winner Mark
	Line   Line
}

// Terminal reports whether no further moves are legal.
func (o Outcome) Terminal() bool {
	return o.Result != Ongoing
}

// Detect returns the first winning line in Lines order, otherwise Draw for a
// full board, otherwise Ongoing.
func Detect(b Board) Outcome {
	for _, line := range Lines {
		first := b[line[0]]
		if first != Empty && first == b[line[1]] && first == b[line[2]] {
			return Outcome{Result: Win, Winner: first, Line: line}
		}
	}

	if b.IsFull() {
		return Outcome{Result: Draw}
	}

	return Outcome{Result: Ongoing}
}
