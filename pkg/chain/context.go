package chain

// Key names a field of the answer context.
type Key string

const (
	KeyTranscript        Key = "transcript"
	KeyQuestion          Key = "question"
	KeyAnswerInCode      Key = "answerInCode"
	KeyAnswer            Key = "answer"
	KeyPreviousAnswer    Key = "previousAnswer"
	KeyHighlightedAnswer Key = "highlightedAnswer"
	KeyCodeAnswer        Key = "codeAnswer"
	KeyBrowserCode       Key = "browserCode"
	KeyBrowserLogs       Key = "browserLogs"
)

// Context is the key/value state threaded through one turn.
// Callers that hand a Context to another branch must Clone it first.
type Context map[Key]string

// Get returns the value for key and whether it is present.
func (c Context) Get(key Key) (string, bool) {
	v, ok := c[key]
	return v, ok
}

// Has reports whether key is present.
func (c Context) Has(key Key) bool {
	_, ok := c[key]
	return ok
}

// Require returns the value for key or a MissingContextFieldError.
func (c Context) Require(key Key) (string, error) {
	v, ok := c[key]
	if !ok {
		return "", &MissingContextFieldError{Key: key}
	}
	return v, nil
}

// Set overwrites the value for key.
func (c Context) Set(key Key, value string) {
	c[key] = value
}

// Clone returns an independent copy of the context.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge returns a new context with other's entries applied on top of c.
func (c Context) Merge(other Context) Context {
	out := c.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Changes returns the entries of c that are new or different compared to base.
// A key written back to its base value is not a change, so in a merge it
// cannot override a sibling's write to the same key.
func (c Context) Changes(base Context) Context {
	out := Context{}
	for k, v := range c {
		if prev, ok := base[k]; !ok || prev != v {
			out[k] = v
		}
	}
	return out
}
