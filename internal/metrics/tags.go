package metrics

import (
	"fmt"

	"github.com/LavishGent/billboard/internal/types"
)

// Tag creates a formatted DataDog tag string in "key:value" format.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

// SourceTag tags a lookup with the tier that answered it (cache/primary/backup/none).
func SourceTag(source types.Source) string {
	return Tag("source", source.String())
}

// OperationTag creates an operation tag.
func OperationTag(op string) string {
	return Tag("operation", op)
}

// LayerTag creates a cache layer tag (memory/redis).
func LayerTag(layer string) string {
	return Tag("layer", layer)
}

// AttemptTag tags a primary-provider failure with its attempt number.
func AttemptTag(attempt int) string {
	return Tag("attempt", fmt.Sprint(attempt))
}

// CircuitStateTag creates a circuit breaker state tag.
func CircuitStateTag(prefix, state string) string {
	return Tag(prefix+"_state", state)
}
