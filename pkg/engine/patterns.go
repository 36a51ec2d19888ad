package engine

// patternStep moves the checkers of one origin: a single checker starting
// at froms[origin] advances steps times the die value.
type patternStep struct {
	origin int
	steps  int
}

// movePatterns enumerates every structurally distinct way up to four equal
// dice can be distributed over 1, 2, 3 or 4 origins. Entry n-1 holds the
// patterns for n origins. Every origin moves at least one checker by at
// least one die, and the steps of one pattern never exceed four in total.
// Within an origin the longest chains come first.
var movePatterns = [4][][]patternStep{
	// One origin: the partitions of 1, 2, 3 and 4.
	{
		{{0, 1}},
		{{0, 2}},
		{{0, 1}, {0, 1}},
		{{0, 3}},
		{{0, 2}, {0, 1}},
		{{0, 1}, {0, 1}, {0, 1}},
		{{0, 4}},
		{{0, 3}, {0, 1}},
		{{0, 2}, {0, 2}},
		{{0, 2}, {0, 1}, {0, 1}},
		{{0, 1}, {0, 1}, {0, 1}, {0, 1}},
	},
	// Two origins.
	{
		{{0, 1}, {1, 1}},

		{{0, 1}, {1, 2}},
		{{0, 1}, {1, 1}, {1, 1}},
		{{0, 2}, {1, 1}},
		{{0, 1}, {0, 1}, {1, 1}},

		{{0, 1}, {1, 3}},
		{{0, 1}, {1, 2}, {1, 1}},
		{{0, 1}, {1, 1}, {1, 1}, {1, 1}},
		{{0, 3}, {1, 1}},
		{{0, 2}, {0, 1}, {1, 1}},
		{{0, 1}, {0, 1}, {0, 1}, {1, 1}},

		{{0, 2}, {1, 2}},
		{{0, 2}, {1, 1}, {1, 1}},
		{{0, 1}, {0, 1}, {1, 2}},
		{{0, 1}, {0, 1}, {1, 1}, {1, 1}},
	},
	// Three origins.
	{
		{{0, 1}, {1, 1}, {2, 1}},
		{{0, 2}, {1, 1}, {2, 1}},
		{{0, 1}, {0, 1}, {1, 1}, {2, 1}},
		{{0, 1}, {1, 2}, {2, 1}},
		{{0, 1}, {1, 1}, {1, 1}, {2, 1}},
		{{0, 1}, {1, 1}, {2, 2}},
		{{0, 1}, {1, 1}, {2, 1}, {2, 1}},
	},
	// Four origins.
	{
		{{0, 1}, {1, 1}, {2, 1}, {3, 1}},
	},
}
