package selection

// Memory is an in-process Store for tests and DB-less runs.
type Memory struct {
	value string
	set   bool
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the stored value, or false when nothing is stored.
func (m *Memory) Get() (string, bool) {
	return m.value, m.set
}

// Put replaces the stored value.
func (m *Memory) Put(value string) error {
	m.value = value
	m.set = true
	return nil
}
