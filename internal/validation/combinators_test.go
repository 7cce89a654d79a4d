package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

type staticQuery struct {
	res *Result
	err error
}

func (q staticQuery) Execute(ctx context.Context) (*Result, error) {
	return q.res, q.err
}

func satisfiedWith(txs ...domain.Transaction) staticQuery {
	return staticQuery{res: &Result{Satisfied: true, Matches: txs}}
}

func unsatisfied() staticQuery {
	return staticQuery{res: &Result{Satisfied: false}}
}

func tx(id, address string) domain.Transaction {
	return domain.Transaction{TxID: id, UserAddress: address}
}

func TestOr_DeduplicatesByTxID(t *testing.T) {
	left := satisfiedWith(tx("t1", "A"), tx("t2", "B"))
	right := satisfiedWith(tx("t2", "B"), tx("t3", "C"))

	res, err := Or(left, right).Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Satisfied)
	ids := make(map[string]int)
	for _, m := range res.Matches {
		ids[m.TxID]++
	}
	assert.Len(t, res.Matches, 3)
	for id, count := range ids {
		assert.Equal(t, 1, count, "tx_id %s appears more than once", id)
	}
}

func TestOr_KeepsEntriesWithoutTxID(t *testing.T) {
	// Matches without a tx_id are never de-duplicated. Long-standing policy.
	left := satisfiedWith(tx("", "A"))
	right := satisfiedWith(tx("", "A"))

	res, err := Or(left, right).Execute(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
}

func TestOr_SatisfiedWhenEitherSideIs(t *testing.T) {
	res, err := Or(satisfiedWith(tx("t1", "A")), unsatisfied()).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)

	res, err = Or(unsatisfied(), unsatisfied()).Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
}

func TestAnd_RequiresNonEmptyIntersection(t *testing.T) {
	// Both sides satisfied but over disjoint transactions: the AND is vacuous
	// and must not be satisfied.
	left := satisfiedWith(tx("t1", "A"))
	right := satisfiedWith(tx("t2", "B"))

	res, err := And(left, right).Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	assert.Empty(t, res.Matches)
}

func TestAnd_IntersectsByTxID(t *testing.T) {
	left := satisfiedWith(tx("t1", "A"), tx("t2", "B"))
	right := satisfiedWith(tx("t2", "B"), tx("t3", "C"))

	res, err := And(left, right).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "t2", res.Matches[0].TxID)
}

func TestAnd_FallsBackToAddressWhenTxIDMissing(t *testing.T) {
	left := satisfiedWith(tx("t1", "A"))
	right := satisfiedWith(tx("", "A"))

	res, err := And(left, right).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "A", res.Matches[0].UserAddress)
}

func TestAnd_UnsatisfiedOperandWins(t *testing.T) {
	shared := tx("t1", "A")
	left := satisfiedWith(shared)
	right := staticQuery{res: &Result{Satisfied: false, Matches: []domain.Transaction{shared}}}

	res, err := And(left, right).Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Satisfied, "intersection alone must not satisfy an AND")
	assert.Len(t, res.Matches, 1, "matches still report the intersection")
}

func TestNot_InvertsAndNeverProducesMatches(t *testing.T) {
	res, err := Not(satisfiedWith(tx("t1", "A"))).Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	assert.Empty(t, res.Matches)

	res, err = Not(unsatisfied()).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Satisfied)
	assert.Empty(t, res.Matches)
}

func TestCombinators_Nest(t *testing.T) {
	shared := tx("t1", "A")
	q := Not(And(Or(satisfiedWith(shared), unsatisfied()), satisfiedWith(shared)))

	res, err := q.Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Satisfied)
	assert.Empty(t, res.Matches)
}

func TestCombinators_PropagateOperandErrors(t *testing.T) {
	boom := errors.New("upstream down")
	failing := staticQuery{err: boom}

	_, err := And(failing, satisfiedWith(tx("t1", "A"))).Execute(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = Or(satisfiedWith(tx("t1", "A")), failing).Execute(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = Not(failing).Execute(context.Background())
	assert.ErrorIs(t, err, boom)
}
