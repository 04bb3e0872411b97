package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/xaalispay/xaalis/internal/repository"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTransferReference returns a unique human-readable transfer reference,
// e.g. "TRX1763290845KQ4Z". The credit leg appends its suffix to the same base.
func NewTransferReference() string {
	return "TRX" + strconv.FormatInt(time.Now().Unix(), 10) + randToken(4)
}

// NewPaymentReference returns the base reference shared by the two legs of a
// merchant payment.
func NewPaymentReference() string {
	return "PAY" + strconv.FormatInt(time.Now().Unix(), 10) + randToken(4)
}

func randToken(n int) string {
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceAlphabet))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a time-derived index rather than aborting a payment.
			out[i] = referenceAlphabet[time.Now().UnixNano()%int64(len(referenceAlphabet))]
			continue
		}
		out[i] = referenceAlphabet[idx.Int64()]
	}
	return string(out)
}

// GenerateAccountNumber produces a business account number of the form
// C<yyyymm><5-digit-random>, retried until it does not collide with an
// existing account.
func GenerateAccountNumber(ctx context.Context, q *repository.Queries) (string, error) {
	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(100000))
		if err != nil {
			return "", fmt.Errorf("generate account number: %w", err)
		}
		number := fmt.Sprintf("C%s%05d", time.Now().Format("200601"), n.Int64())
		exists, err := q.AccountNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique account number after %d attempts", maxAttempts)
}
