package services

import (
	"strings"
	"sync"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/shopspring/decimal"
)

// Cart is the in-memory product -> quantity mapping of one client. Lines keep
// insertion order; a product appears at most once and never with quantity 0.
type Cart struct {
	mu       sync.Mutex
	lines    []entity.CartLine
	onChange func([]entity.CartLine)
}

func NewCart(onChange func([]entity.CartLine)) *Cart {
	return &Cart{onChange: onChange}
}

// AddItem inserts p with quantity 1, or bumps the quantity if already present.
func (c *Cart) AddItem(p entity.Product) ([]entity.CartLine, error) {
	if strings.TrimSpace(p.ID) == "" || p.Price.IsNegative() {
		return c.Lines(), ErrInvalidProduct
	}
	c.mu.Lock()
	if i := c.indexLocked(p.ID); i >= 0 {
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, entity.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  1,
		})
	}
	return c.commitLocked(), nil
}

// SetQuantity sets the line's quantity; anything below 1 removes the line.
func (c *Cart) SetQuantity(productID string, qty int) ([]entity.CartLine, error) {
	c.mu.Lock()
	i := c.indexLocked(productID)
	if qty < 1 {
		if i >= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return c.commitLocked(), nil
	}
	if i < 0 {
		c.mu.Unlock()
		return c.Lines(), ErrNotInCart
	}
	c.lines[i].Quantity = qty
	return c.commitLocked(), nil
}

func (c *Cart) SetNote(productID, note string) ([]entity.CartLine, error) {
	c.mu.Lock()
	i := c.indexLocked(productID)
	if i < 0 {
		c.mu.Unlock()
		return c.Lines(), ErrNotInCart
	}
	c.lines[i].Note = strings.TrimSpace(note)
	return c.commitLocked(), nil
}

func (c *Cart) RemoveItem(productID string) []entity.CartLine {
	c.mu.Lock()
	if i := c.indexLocked(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	return c.commitLocked()
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.commitLocked()
}

// Total is the exact sum of unit price times quantity. No fees are added here.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Lines() []entity.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

func (c *Cart) indexLocked(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) copyLocked() []entity.CartLine {
	out := make([]entity.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// commitLocked releases the lock and reports the new lines.
func (c *Cart) commitLocked() []entity.CartLine {
	out := c.copyLocked()
	c.mu.Unlock()
	if c.onChange != nil {
		c.onChange(out)
	}
	return out
}
