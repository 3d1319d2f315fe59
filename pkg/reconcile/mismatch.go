package reconcile

import (
	"crypto/ed25519"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
)

// Source names a system of record.
type Source string

const (
	SourceCSV  Source = "csv"
	SourceAPI  Source = "api"
	SourceTree Source = "tree"
)

const (
	FieldAmount      = "amount"
	FieldPresence    = "presence"
	FieldProofLength = "proof.length"
)

// ProofField names the proof node at index.
func ProofField(index int) string {
	return fmt.Sprintf("proof[%d]", index)
}

// MismatchError reports the first disagreement found for a claimant. Values
// holds the conflicting value from each source involved.
type MismatchError struct {
	Claimant ed25519.PublicKey
	Field    string
	// Index is the proof index for proof node mismatches, otherwise -1.
	Index  int
	Values map[Source]string
}

func (e *MismatchError) Error() string {
	sources := make([]string, 0, len(e.Values))
	for source := range e.Values {
		sources = append(sources, string(source))
	}
	sort.Strings(sources)

	values := make([]string, 0, len(sources))
	for _, source := range sources {
		values = append(values, fmt.Sprintf("%s: %s", source, e.Values[Source(source)]))
	}

	return fmt.Sprintf(
		"%s mismatch for user %s, %s",
		e.Field,
		base58.Encode(e.Claimant),
		strings.Join(values, ", "),
	)
}
