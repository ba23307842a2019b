package schema

// String is a plain text content.
type String string

func (s String) String() string {
	return string(s)
}
