package domain

// Commitment is the ledger commitment level a confirmation waits for.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Rank orders commitment levels; unknown levels rank 0.
func (c Commitment) Rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

// IsValid checks if the commitment is a known level.
func (c Commitment) IsValid() bool {
	return c.Rank() > 0
}

// Satisfies reports whether reaching c meets the wanted level.
func (c Commitment) Satisfies(wanted Commitment) bool {
	return c.Rank() >= wanted.Rank() && c.Rank() > 0
}

// TransactionBatch is the ordered set of unsigned transactions returned by
// the pool service. Payloads are opaque; position is significant.
type TransactionBatch struct {
	Transactions [][]byte // serialized wire transactions, in execution order
	TokenAddress string   // resulting token (mint) address
}

// Len returns the number of transactions in the batch.
func (b *TransactionBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Transactions)
}

// SubmissionStatus is the confirmation state of one submitted transaction.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionConfirmed SubmissionStatus = "confirmed"
	SubmissionFailed    SubmissionStatus = "failed"
)

// SubmissionResult is the per-transaction outcome.
type SubmissionResult struct {
	Index       int
	Signature   string // base58, empty if never submitted
	Status      SubmissionStatus
	ConfirmedAt int64 // Unix ms, 0 unless confirmed
}

// SubmittedSignature is the signature a wallet reports for a submitted
// transaction. Wallets hand it back either as base58 text or as raw bytes.
type SubmittedSignature struct {
	Text  string
	Bytes []byte
}
