package domain

// Cart holds the ordered collection of line items for the in-progress
// transaction. All mutators operate purely on the in-memory collection;
// persistence and event publication are the service layer's concern.
type Cart struct {
	Lines []LineItem `json:"lines"`
}

// AddLine adds a line item to the cart. When an existing catalog line matches
// the same product and variant, its quantity is incremented instead of
// appending a duplicate row. External lines always append.
func (c *Cart) AddLine(item LineItem) {
	if !item.External {
		if i := c.findCatalogLine(item.ProductID, item.VariantID); i >= 0 {
			c.Lines[i].Quantity += item.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, item)
}

// SetQuantity updates the quantity of the identified line. A quantity of zero
// or less removes the line. An absent line ID is a no-op: the caller should
// treat the line as already removed.
func (c *Cart) SetQuantity(lineID string, quantity int) {
	for i := range c.Lines {
		if c.Lines[i].ID != lineID {
			continue
		}
		if quantity <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
		c.Lines[i].Quantity = quantity
		return
	}
}

// RemoveLine removes the identified line from the cart. Removal is idempotent.
func (c *Cart) RemoveLine(lineID string) {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Subtotal returns the sum of all line totals in minor currency units.
func (c *Cart) Subtotal() int64 {
	var subtotal int64
	for _, line := range c.Lines {
		subtotal += line.Total()
	}
	return subtotal
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// FindLine returns the line with the given ID, or false if it is absent.
func (c *Cart) FindLine(lineID string) (LineItem, bool) {
	for _, line := range c.Lines {
		if line.ID == lineID {
			return line, true
		}
	}
	return LineItem{}, false
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]LineItem, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// findCatalogLine returns the index of the catalog line matching the given
// product and variant IDs, or -1. External lines never match.
func (c *Cart) findCatalogLine(productID, variantID string) int {
	for i := range c.Lines {
		if c.Lines[i].External {
			continue
		}
		if c.Lines[i].ProductID == productID && c.Lines[i].VariantID == variantID {
			return i
		}
	}
	return -1
}
