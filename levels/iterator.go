package levels

// TileIterator yields tile addresses for one block of rows and columns at a level,
// in row-major order (south to north, west to east).
// It computes each address when asked and holds no list of them.
// A TileIterator is for a single consumer; it is not safe for concurrent use.
type TileIterator struct {
	r        tileRange
	row, col int
}

func newTileIterator(r tileRange) *TileIterator {
	it := &TileIterator{r: r}
	it.Reset()
	return it
}

// Next returns the next address, and false when the iterator is exhausted.
func (it *TileIterator) Next() (Address, bool) {
	if it.row > it.r.lastRow {
		return Address{}, false
	}
	a := Address{Level: it.r.level, Row: it.row, Column: it.col}
	it.col++
	if it.col > it.r.lastCol {
		it.col = it.r.firstCol
		it.row++
	}
	return a, true
}

// Reset rewinds the iterator to its first address.
func (it *TileIterator) Reset() {
	it.row = it.r.firstRow
	it.col = it.r.firstCol
}

// Len is the total number of addresses the iterator yields from the start.
func (it *TileIterator) Len() int {
	return it.r.count()
}

// Remaining is the number of addresses not yet returned by Next.
func (it *TileIterator) Remaining() int {
	if it.row > it.r.lastRow {
		return 0
	}
	doneRows := it.row - it.r.firstRow
	return it.r.count() - doneRows*it.r.columns() - (it.col - it.r.firstCol)
}

// Level is the level number of every address the iterator yields.
func (it *TileIterator) Level() int {
	return it.r.level
}
