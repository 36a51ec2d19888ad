package match

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/yourusername/gofibs/pkg/engine"
)

// MAT is the Jellyfish/gnubg match format:
//
//	 ; [Player 1 "name1"]
//	 ; [Player 2 "name2"]
//	 7 point match
//
//	 Game 1
//	 name1 : 0                          name2 : 0
//	  1) 31: 8/5 6/5                    52: 24/22 13/8
//	  2) 43: 24/20 13/10                Doubles => 2

const matColumn = 28

// ExportMAT writes the match in MAT format. Player 1 is White.
func ExportMAT(w io.Writer, m *Match) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, " ; [Site \"FIBS\"]\n")
	fmt.Fprintf(bw, " ; [Match ID \"%s\"]\n", m.ID)
	fmt.Fprintf(bw, " ; [Player 1 \"%s\"]\n", m.Players[0])
	fmt.Fprintf(bw, " ; [Player 2 \"%s\"]\n", m.Players[1])
	fmt.Fprintf(bw, " ; [Date \"%s\"]\n", m.Started.Format("2006.01.02"))
	if m.Length > 0 {
		fmt.Fprintf(bw, " %d point match\n\n", m.Length)
	} else {
		fmt.Fprintf(bw, " Unlimited match\n\n")
	}

	for i, g := range m.games {
		exportGameMAT(bw, m, i+1, g)
	}
	return bw.Flush()
}

// exportGameMAT writes one game.
func exportGameMAT(w io.Writer, m *Match, number int, g *Game) {
	initial := g.InitialPosition()
	fmt.Fprintf(w, " Game %d\n", number)
	fmt.Fprintf(w, " %s : %d%s%s : %d\n",
		m.Players[0], initial.Scores[0],
		strings.Repeat(" ", 26), m.Players[1], initial.Scores[1])

	rows := &matRows{w: w}
	var dice [2][2]int
	for _, s := range g.snapshots {
		switch a := s.Action.(type) {
		case Roll:
			dice[s.Side.Index()] = [2]int{a.Die1, a.Die2}
		case Move:
			d := dice[s.Side.Index()]
			text := fmt.Sprintf("%d%d:", d[0], d[1])
			if len(a.Movements) > 0 {
				text += " " + formatMovementsMAT(a.Movements)
			}
			rows.add(s.Side, text)
		case Double:
			rows.add(s.Side, fmt.Sprintf(" Doubles => %d", s.Position.Cube*2))
		case Take:
			rows.add(s.Side, " Takes")
		case Drop:
			rows.add(s.Side, " Drops")
		}
	}
	if g.Over() {
		points := abs(g.Score())
		unit := "points"
		if points == 1 {
			unit = "point"
		}
		rows.add(g.Winner(), fmt.Sprintf("Wins %d %s", points, unit))
	}
	rows.flush()
	fmt.Fprintln(w)
}

// formatMovementsMAT joins movements, which are already numbered from the
// mover's point of view.
func formatMovementsMAT(movements []engine.Movement) string {
	parts := make([]string, len(movements))
	for i, mv := range movements {
		parts[i] = mv.String()
	}
	return strings.Join(parts, " ")
}

// matRows lays out numbered rows with White in the left column and Black
// in the right one.
type matRows struct {
	w    io.Writer
	n    int
	left string
	open bool
}

func (r *matRows) add(side engine.Side, text string) {
	if side != engine.Black {
		r.flush()
		r.left, r.open = text, true
		return
	}
	if !r.open {
		r.left = ""
	}
	r.n++
	fmt.Fprintf(r.w, "%3d) %-*s %s\n", r.n, matColumn, r.left, text)
	r.open = false
}

func (r *matRows) flush() {
	if !r.open {
		return
	}
	r.n++
	fmt.Fprintf(r.w, "%3d) %s\n", r.n, r.left)
	r.open = false
}
