package naming

import (
	"context"
	"fmt"

	"github.com/azlog-io/azlog/internal/ir"
	"github.com/azlog-io/azlog/internal/provider"
)

// DefaultMaxAttempts matches the two-digit suffix space: the base name plus
// "01".."99".
const DefaultMaxAttempts = 100

// CreateFunc performs one create attempt under the given name.
type CreateFunc func(ctx context.Context, name string) error

// CreateWithRetry drives create through globally-unique-name collisions.
// Attempt 0 uses the candidate unmodified; each further attempt appends a
// two-digit zero-padded suffix, shortening the base first if the suffix
// would overflow maxLength. Only *provider.ConflictError is retried; any
// other error aborts immediately. Returns the name that finally succeeded.
func CreateWithRetry(ctx context.Context, candidate ir.CandidateName, maxLength, maxAttempts int, create CreateFunc) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastName string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		name := candidate.Value
		if attempt > 0 {
			if maxLength < 2 {
				return "", &PolicyViolationError{
					Base:   candidate.Value,
					Reason: fmt.Sprintf("max length %d cannot fit a collision suffix", maxLength),
				}
			}
			base := candidate.Value
			if len(base)+2 > maxLength {
				base = base[:maxLength-2]
			}
			name = fmt.Sprintf("%s%02d", base, attempt)
		}
		lastName = name

		err := create(ctx, name)
		if err == nil {
			return name, nil
		}
		if !provider.IsConflict(err) {
			return "", err
		}
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}
	}

	return "", &provider.ExhaustedError{Attempts: maxAttempts, LastName: lastName}
}
