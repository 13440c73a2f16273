package lcd

import "fmt"

// Position mirrors the addressing registers held by the controllers. Page and Column are -1 when
// the driver cannot know them, e.g. right after Init or Clear. It is diagnostic only: the driver
// never skips a positioning command because the mirror already matches.
type Position struct {
	Chip   Chip
	Page   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%v chip, page %d, column %d", p.Chip, p.Page, p.Column)
}

func (p *Position) invalidate() {
	p.Page = -1
	p.Column = -1
}

// advance follows the controller's column counter, which wraps at PageWidth after every data
// write or read.
func (p *Position) advance() {
	if p.Column < 0 {
		return
	}
	p.Column = (p.Column + 1) % PageWidth
}
