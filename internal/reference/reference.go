// Package reference issues human-readable shipment reference numbers of the
// form CLEX-{TYPE}{YY}-{NNNN}, e.g. CLEX-IMS24-0001.
package reference

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"customs-clearance/internal/domain"
)

const Prefix = "CLEX"

var (
	referencePattern = regexp.MustCompile(`^(CLEX)-(IMS|IMA|ACN|ACR|EXP)(\d{2})-(\d{4})$`)
	yearPattern      = regexp.MustCompile(`^\d{2}$`)
)

// Counter hands out the next sequence for a (transactionType, year) key. The
// increment must be a single atomic read-modify-write: two calls for the same
// key never return the same value. Sequences start at 1.
type Counter interface {
	Next(ctx context.Context, transactionType domain.TransactionType, year string) (int64, error)
}

type Config struct {
	Prefix          string                 `json:"prefix"`
	TransactionType domain.TransactionType `json:"transaction_type"`
	Year            string                 `json:"year"`
	Sequence        int64                  `json:"sequence"`
}

type Issued struct {
	ReferenceNumber string `json:"referenceNumber"`
	SequenceNumber  int64  `json:"sequenceNumber"`
}

type Generator struct {
	counter Counter
}

func NewGenerator(counter Counter) *Generator {
	return &Generator{counter: counter}
}

// Next reserves the next sequence for (transactionType, year) and formats it.
// Counter failures surface as domain.ErrReferenceGeneration.
func (g *Generator) Next(ctx context.Context, transactionType domain.TransactionType, year string) (Issued, error) {
	if !transactionType.IsValid() {
		return Issued{}, fmt.Errorf("%w: unknown transaction type %q", domain.ErrValidation, transactionType)
	}
	if !yearPattern.MatchString(year) {
		return Issued{}, fmt.Errorf("%w: year %q must be two digits", domain.ErrValidation, year)
	}
	if g == nil || g.counter == nil {
		return Issued{}, fmt.Errorf("%w: no counter configured", domain.ErrReferenceGeneration)
	}

	seq, err := g.counter.Next(ctx, transactionType, year)
	if err != nil {
		return Issued{}, fmt.Errorf("%w: %v", domain.ErrReferenceGeneration, err)
	}
	if seq < 1 || seq > 9999 {
		return Issued{}, fmt.Errorf("%w: sequence %d out of range for %s%s", domain.ErrReferenceGeneration, seq, transactionType, year)
	}

	return Issued{
		ReferenceNumber: Format(Config{Prefix: Prefix, TransactionType: transactionType, Year: year, Sequence: seq}),
		SequenceNumber:  seq,
	}, nil
}

func Format(cfg Config) string {
	return fmt.Sprintf("%s-%s%s-%04d", cfg.Prefix, cfg.TransactionType, cfg.Year, cfg.Sequence)
}

func Validate(referenceNumber string) bool {
	return referencePattern.MatchString(referenceNumber)
}

func Parse(referenceNumber string) (Config, error) {
	m := referencePattern.FindStringSubmatch(referenceNumber)
	if m == nil {
		return Config{}, fmt.Errorf("%w: %q", domain.ErrFormat, referenceNumber)
	}
	seq, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %q", domain.ErrFormat, referenceNumber)
	}
	return Config{
		Prefix:          m[1],
		TransactionType: domain.TransactionType(m[2]),
		Year:            m[3],
		Sequence:        seq,
	}, nil
}

// YearOf returns the two-digit year used in reference numbers.
func YearOf(year int) string {
	return fmt.Sprintf("%02d", year%100)
}
