package launch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailure_UnwrapAndAs(t *testing.T) {
	var err error = &Failure{
		Stage:  StageSequencer,
		Index:  1,
		Reason: fmt.Errorf("wallet: %w", ErrSigningRejected),
		Total:  3,
	}

	assert.True(t, errors.Is(err, ErrSigningRejected))

	f, ok := AsFailure(fmt.Errorf("outer: %w", err))
	assert.True(t, ok)
	assert.Equal(t, StageSequencer, f.Stage)
	assert.Equal(t, 1, f.Index)
}

func TestFailure_OnChainState(t *testing.T) {
	f := &Failure{Stage: StageSequencer, Index: 0, Total: 3, Reason: ErrSubmission}
	assert.False(t, f.OnChainStateMayExist())
	assert.False(t, f.Orphaned())

	f = &Failure{Stage: StageSequencer, Index: 1, Confirmed: 1, Total: 3, Reason: ErrSigningRejected}
	assert.True(t, f.OnChainStateMayExist())
	assert.False(t, f.Orphaned())
	assert.Contains(t, f.UserMessage(), "already confirmed")

	f = &Failure{Stage: StagePersistence, Index: -1, Confirmed: 3, Total: 3,
		Reason: ErrPersistence, TokenAddress: "Mint111"}
	assert.True(t, f.Orphaned())
	assert.Contains(t, f.UserMessage(), "Mint111")
	assert.Contains(t, f.Error(), "live on-chain")
}
