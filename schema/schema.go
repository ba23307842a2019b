package schema

// Schema is the content contract shared by chat messages and tool payloads.
// Implementations render themselves to the text sent over the provider wire.
type Schema interface {
	String() string
}

// Stringify renders a schema content to text.
func Stringify(s Schema) string {
	if s == nil {
		return ""
	}
	return s.String()
}
