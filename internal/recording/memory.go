package recording

// Memory is an in-process Loader/Writer used by tests and by callers that
// assemble a recording programmatically instead of reading one from disk.
type Memory struct {
	header  Header
	columns []Column
}

// NewMemory creates an empty in-memory recording.
func NewMemory(header Header) *Memory {
	return &Memory{header: header}
}

// WriteHeader overwrites the recording's header.
func (m *Memory) WriteHeader(h Header) error {
	m.header = h
	return nil
}

// AppendColumn appends one metric's columns.
func (m *Memory) AppendColumn(c Column) error {
	m.columns = append(m.columns, c)
	return nil
}

// Close is a no-op for the in-memory backing.
func (m *Memory) Close() error { return nil }

// Header returns the recording's header.
func (m *Memory) Header() (Header, error) { return m.header, nil }

// Columns returns every appended column.
func (m *Memory) Columns() ([]Column, error) { return m.columns, nil }
