package graph

import "errors"

// ErrInvalidArgument indicates an empty key, a vertex that is not in the
// graph, or an unusable edge weight. Returned errors wrap it with context.
var ErrInvalidArgument = errors.New("graph: invalid argument")
