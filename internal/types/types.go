package types

// Span identifies a node's extent in one specific document.
// Spans taken from one document are never valid against another.
type Span struct {
	StartByte int
	EndByte   int
	StartRow  int
	StartCol  int
	EndRow    int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.EndByte - s.StartByte
}

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool {
	return o.StartByte >= s.StartByte && o.EndByte <= s.EndByte
}

// Argument is a single argument node of a layout invocation.
type Argument struct {
	Text string
	Span Span
	// Comment marks comment nodes found inside the argument list.
	// They carry no separator and are never counted as the last argument.
	Comment bool
}

// Match represents one recognized layout invocation.
type Match struct {
	Name       string
	Identifier Span
	Arguments  Span
	Call       Span
	// Indent is the leading whitespace of the line the identifier starts on.
	Indent string
	Args   []Argument
}
