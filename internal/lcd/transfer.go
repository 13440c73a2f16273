package lcd

import "fmt"

func (d *Dev) seek(c Chip, page, col uint8) error {
	if err := d.Select(c); err != nil {
		return err
	}
	if err := d.SetPage(page); err != nil {
		return err
	}
	return d.SetAddress(col)
}

// WriteAt positions the controller and writes strips from col onwards. The strips must fit in the
// remaining columns of the page; the controller would otherwise wrap back to column 0.
func (d *Dev) WriteAt(c Chip, page, col uint8, strips []byte) error {
	if err := checkRange(page, col, len(strips)); err != nil {
		return err
	}
	if err := d.seek(c, page, col); err != nil {
		return err
	}
	for _, b := range strips {
		if err := d.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// ReadAt positions the controller and reads n strips from col onwards. Like Read it issues no
// dummy read.
func (d *Dev) ReadAt(c Chip, page, col uint8, n int) ([]byte, error) {
	if err := checkRange(page, col, n); err != nil {
		return nil, err
	}
	if err := d.seek(c, page, col); err != nil {
		return nil, err
	}
	strips := make([]byte, n)
	for i := range strips {
		b, err := d.Read()
		if err != nil {
			return nil, err
		}
		strips[i] = b
	}
	return strips, nil
}

func checkRange(page, col uint8, n int) error {
	if page >= Pages {
		return fmt.Errorf("lcd: page %d out of range", page)
	}
	if col >= PageWidth {
		return fmt.Errorf("lcd: column %d out of range", col)
	}
	if n < 0 || int(col)+n > PageWidth {
		return fmt.Errorf("lcd: %d strips from column %d overrun the page", n, col)
	}
	return nil
}
