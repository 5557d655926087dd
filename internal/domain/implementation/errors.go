package implementation

import (
	"fmt"
	"strings"
)

// AmbiguousNameError indicates a name lookup matched more than one record.
type AmbiguousNameError struct {
	Name string
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("multiple Implementation records share the name %q; use the record ID instead", e.Name)
}

// UnknownQueryError indicates an unrecognized preset query type.
type UnknownQueryError struct {
	QueryType string
	Valid     []string
}

func (e *UnknownQueryError) Error() string {
	return fmt.Sprintf("unknown query type %q; valid types: %s", e.QueryType, strings.Join(e.Valid, ", "))
}
