package extract

import "fmt"

// MalformedInputError reports that the input byte stream is not well-formed
// XML. No partial result accompanies it.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed NAS document: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a matched object-type element missing one of
// its required fields, above all the unique gml:id. The whole extraction
// call aborts.
type SchemaMismatchError struct {
	Tag   string // object-type tag, e.g. "AX_Flurstueck"
	Field string // missing field, e.g. "gml:id"
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s element missing required %s", e.Tag, e.Field)
}
