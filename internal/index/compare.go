package index

import "golang.org/x/exp/constraints"

// Compare returns -1, 0, or 1 as x1 is less than, equal to, or greater than x2.
func Compare[X constraints.Ordered](x1 X, x2 X) (c int) {
	switch {
	case x1 < x2:
		c = -1
	case x1 > x2:
		c = 1
	}
	return
}

// LessName orders entries by attribute name.
func LessName(e1 Entry, e2 Entry) bool {
	return Compare(e1.Name, e2.Name) < 0
}

// LessPos orders entries by insertion position.
func LessPos(e1 Entry, e2 Entry) bool {
	return Compare(e1.Pos, e2.Pos) < 0
}
