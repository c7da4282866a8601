package source

type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates strings and hands out stable IDs. The compile
// driver also uses it to give every identifier a single permanent string
// value for the lifetime of a compile.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern inserts the string and returns its ID; repeated inserts of an
// equal string return the original ID.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	// Own copy, so the interner does not pin the caller's backing buffer.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

func (i *Interner) InternBytes(b []byte) StringID {
	return i.Intern(string(b))
}

// Canonical returns the single stored instance of s, interning it first if
// needed. Every equal string maps to the same returned value.
func (i *Interner) Canonical(s string) string {
	return i.byID[i.Intern(s)]
}

// Lookup returns the string for the ID, or "" and false if invalid.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len counts stored strings, including the NoStringID slot.
func (i *Interner) Len() int {
	return len(i.byID)
}
