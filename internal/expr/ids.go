package expr

// ID addresses a node in a Builder. Zero means "no node".
type ID uint32

const NoID ID = 0

func (id ID) IsValid() bool { return id != NoID }
