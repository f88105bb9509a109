package tabular

// Request is one reconciliation event. Exactly one of Resize, Shuffle,
// Upload or Edit.
type Request interface {
	request()
}

// Resize brings the table to the requested shape, keeping what it can.
type Resize struct{}

// Shuffle discards stored values and regenerates the table.
type Shuffle struct{}

// Upload replaces table content from a CSV payload.
type Upload struct {
	Payload []byte
}

// Edit sets individual cells. All cells are applied or none are.
type Edit struct {
	Cells []CellEdit
}

// CellEdit addresses one cell by zero-based row and column.
type CellEdit struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value any `json:"value"`
}

func (Resize) request()  {}
func (Shuffle) request() {}
func (Upload) request()  {}
func (Edit) request()    {}
