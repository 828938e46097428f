package state_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lamportlabs/feemeter/foundation/meter/admission"
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/genesis"
	"github.com/lamportlabs/feemeter/foundation/meter/mempool/selector"
	"github.com/lamportlabs/feemeter/foundation/meter/state"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
	"github.com/lamportlabs/feemeter/foundation/meter/weight"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	chainID   = uint16(1)
	pkHexKey  = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkAccount = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	pk2HexKey = "aed31b6b5a341af8f27e66fb0b7633cf20fc27049e3eb7f6f623a4655b719ebb"
	toID      = transaction.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
)

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		ChainID:         chainID,
		Epoch:           0,
		LamportsPerCU:   10,
		BurnBasisPoints: 4_000,
		WeightVersion:   weight.VersionSum,
		Ceilings: budget.Budget{
			Signatures:    10_000,
			Execution:     1_400_000,
			AccountAccess: 64_000,
			Memory:        256_000,
			StorageGrowth: 10_000,
			Network:       10_000,
		},
		Defaults: budget.Budget{
			Signatures: 1_440,
			Execution:  200_000,
		},
		BlockMaxComputeUnits:   10_000,
		AccountMaxComputeUnits: 6_000,
		TransPerBlock:          4,
		ChargeOnRuntimeFailure: true,
	}
}

func newState(t *testing.T) *state.State {
	s, err := state.New(state.Config{
		Genesis:        testGenesis(),
		SelectStrategy: selector.StrategyPriorityFee,
		FeeDepth:       10,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return s
}

func submit(t *testing.T, s *state.State, hexKey string, nonce uint64, bid uint64, instructions []budget.Instruction) transaction.MeteredTx {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	tx, err := transaction.New(chainID, nonce, toID, 100, bid, instructions)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	mtx, err := s.SubmitTransaction(signedTx)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to submit the transaction: %v", failed, err)
	}

	return mtx
}

func TestSubmit(t *testing.T) {
	t.Log("Given the need to validate transaction submission and quoting.")
	{
		t.Logf("\tTest 0:\tWhen submitting a well formed transaction.")
		{
			s := newState(t)

			instructions := []budget.Instruction{
				budget.SetLimit(budget.Signatures, 1_000),
				budget.SetLimit(budget.Execution, 3_000),
				budget.SetLimit(budget.AccountAccess, 1_000),
			}

			mtx := submit(t, s, pkHexKey, 1, 50, instructions)
			t.Logf("\t%s\tTest 0:\tShould be able to submit the transaction.", success)

			if mtx.Quote.TotalComputeUnits != 5_000 {
				t.Errorf("\t%s\tTest 0:\tShould quote 5,000 total units, got %d.", failed, mtx.Quote.TotalComputeUnits)
			} else {
				t.Logf("\t%s\tTest 0:\tShould quote 5,000 total units.", success)
			}

			if mtx.Quote.BaseFeeLamports != 50_000 || mtx.Quote.BurnLamports != 20_000 || mtx.Quote.RewardLamports != 30_000 {
				t.Errorf("\t%s\tTest 0:\tShould quote 50,000 split 20,000/30,000, got %+v.", failed, mtx.Quote)
			} else {
				t.Logf("\t%s\tTest 0:\tShould quote 50,000 split 20,000/30,000.", success)
			}

			if s.MempoolCount() != 1 {
				t.Errorf("\t%s\tTest 0:\tShould hold the transaction in the mempool.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould hold the transaction in the mempool.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen submitting a transaction bound to another chain.")
		{
			s := newState(t)

			pk, err := crypto.HexToECDSA(pkHexKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to load the private key: %v", failed, err)
			}

			tx, err := transaction.New(chainID+1, 1, toID, 100, 0, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to construct the transaction: %v", failed, err)
			}

			signedTx, err := tx.Sign(pk)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign the transaction: %v", failed, err)
			}

			if _, err := s.SubmitTransaction(signedTx); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould refuse the foreign transaction.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould refuse the foreign transaction.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen submitting a budget above a protocol ceiling.")
		{
			s := newState(t)

			pk, err := crypto.HexToECDSA(pkHexKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to load the private key: %v", failed, err)
			}

			instructions := []budget.Instruction{
				budget.SetLimit(budget.Execution, 1_400_001),
			}

			tx, err := transaction.New(chainID, 1, toID, 100, 0, instructions)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to construct the transaction: %v", failed, err)
			}

			signedTx, err := tx.Sign(pk)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to sign the transaction: %v", failed, err)
			}

			if _, err := s.SubmitTransaction(signedTx); !errors.Is(err, budget.ErrLimitExceededPreRuntime) {
				t.Errorf("\t%s\tTest 2:\tShould get ErrLimitExceededPreRuntime, got %v.", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould get ErrLimitExceededPreRuntime.", success)
			}

			if s.MempoolCount() != 0 {
				t.Errorf("\t%s\tTest 2:\tShould keep the rejected transaction out of the mempool.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould keep the rejected transaction out of the mempool.", success)
			}
		}
	}
}

func TestProposeBlock(t *testing.T) {
	t.Log("Given the need to validate block proposals against the cost limits.")
	{
		t.Logf("\tTest 0:\tWhen the pool fits in one block.")
		{
			s := newState(t)

			instructions := []budget.Instruction{
				budget.SetLimit(budget.Signatures, 0),
				budget.SetLimit(budget.Execution, 2_000),
			}

			submit(t, s, pkHexKey, 1, 30, instructions)
			submit(t, s, pkHexKey, 2, 70, instructions)

			proposal, err := s.ProposeBlock()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to propose a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to propose a block.", success)

			if len(proposal.Transactions) != 2 || proposal.TotalComputeUnits != 4_000 {
				t.Errorf("\t%s\tTest 0:\tShould include both transactions for 4,000 units, got %d txs %d units.", failed, len(proposal.Transactions), proposal.TotalComputeUnits)
			} else {
				t.Logf("\t%s\tTest 0:\tShould include both transactions for 4,000 units.", success)
			}

			if proposal.Transactions[0].Nonce != 1 || proposal.Transactions[1].Nonce != 2 {
				t.Errorf("\t%s\tTest 0:\tShould keep the account's nonce order.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould keep the account's nonce order.", success)
			}

			if s.MempoolCount() != 0 {
				t.Errorf("\t%s\tTest 0:\tShould drain the mempool.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould drain the mempool.", success)
			}

			fees := s.RecentFees()
			if len(fees) != 1 || fees[0].MinPriorityFee != 30 || fees[0].MaxPriorityFee != 70 {
				t.Errorf("\t%s\tTest 0:\tShould record the block's bids, got %+v.", failed, fees)
			} else {
				t.Logf("\t%s\tTest 0:\tShould record the block's bids.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen an account's chained cost hits its limit.")
		{
			s := newState(t)

			// Three transactions at 2,000 units each all touch the same two
			// accounts. The account limit of 6,000 covers the first two plus
			// nothing more once the account already carries 4,000.
			instructions := []budget.Instruction{
				budget.SetLimit(budget.Signatures, 0),
				budget.SetLimit(budget.Execution, 2_000),
			}

			submit(t, s, pkHexKey, 1, 10, instructions)
			submit(t, s, pkHexKey, 2, 10, instructions)
			submit(t, s, pkHexKey, 3, 10, instructions)
			submit(t, s, pkHexKey, 4, 10, instructions)

			proposal, err := s.ProposeBlock()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to propose a block: %v", failed, err)
			}

			if len(proposal.Transactions) != 3 {
				t.Errorf("\t%s\tTest 1:\tShould include only the transactions that fit, got %d.", failed, len(proposal.Transactions))
			} else {
				t.Logf("\t%s\tTest 1:\tShould include only the transactions that fit.", success)
			}

			if s.MempoolCount() != 1 {
				t.Errorf("\t%s\tTest 1:\tShould leave the unfitting transaction pooled, got %d.", failed, s.MempoolCount())
			} else {
				t.Logf("\t%s\tTest 1:\tShould leave the unfitting transaction pooled.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen the mempool is empty.")
		{
			s := newState(t)

			if _, err := s.ProposeBlock(); !errors.Is(err, state.ErrNoTransactions) {
				t.Errorf("\t%s\tTest 2:\tShould get ErrNoTransactions, got %v.", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould get ErrNoTransactions.", success)
			}
		}

		t.Logf("\tTest 3:\tWhen an account's first nonce is skipped for cost.")
		{
			s := newState(t)

			// The first account's nonce 1 alone exceeds the 6,000 unit
			// account cap, while its nonce 2 would fit easily. Neither may
			// land: a block carrying nonce 2 without nonce 1 breaks the
			// account's nonce order.
			big := []budget.Instruction{
				budget.SetLimit(budget.Signatures, 0),
				budget.SetLimit(budget.Execution, 7_000),
			}
			small := []budget.Instruction{
				budget.SetLimit(budget.Signatures, 0),
				budget.SetLimit(budget.Execution, 100),
			}

			submit(t, s, pkHexKey, 1, 10, big)
			submit(t, s, pkHexKey, 2, 10, small)
			submit(t, s, pk2HexKey, 1, 10, small)

			proposal, err := s.ProposeBlock()
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to propose a block: %v", failed, err)
			}

			if len(proposal.Transactions) != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould include only the second account's transaction, got %d.", failed, len(proposal.Transactions))
			}

			from, err := proposal.Transactions[0].FromAccount()
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to extract the from account: %v", failed, err)
			}

			if string(from) == pkAccount {
				t.Errorf("\t%s\tTest 3:\tShould hold back the skipped account's later nonce.", failed)
			} else {
				t.Logf("\t%s\tTest 3:\tShould hold back the skipped account's later nonce.", success)
			}

			if s.MempoolCount() != 2 {
				t.Errorf("\t%s\tTest 3:\tShould leave both of the account's transactions pooled, got %d.", failed, s.MempoolCount())
			} else {
				t.Logf("\t%s\tTest 3:\tShould leave both of the account's transactions pooled.", success)
			}
		}
	}
}

func TestRuntimeMetering(t *testing.T) {
	t.Log("Given the need to meter execution against an admitted budget.")
	{
		t.Logf("\tTest 0:\tWhen execution finishes within the declared limits.")
		{
			s := newState(t)

			b, quote, err := s.QuoteFee([]budget.Instruction{
				budget.SetLimit(budget.Signatures, 0),
				budget.SetLimit(budget.Execution, 100),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to quote the budget: %v", failed, err)
			}

			if quote.BaseFeeLamports != 1_000 {
				t.Errorf("\t%s\tTest 0:\tShould quote 1,000 lamports, got %d.", failed, quote.BaseFeeLamports)
			} else {
				t.Logf("\t%s\tTest 0:\tShould quote 1,000 lamports.", success)
			}

			m, err := s.NewMeter(b)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the meter: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct the meter.", success)

			if err := m.Consume(budget.Execution, 60); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the first increment: %v", failed, err)
			}
			if err := m.Consume(budget.Execution, 40); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the second increment: %v", failed, err)
			}
			if err := m.Complete(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to complete: %v", failed, err)
			}

			v := m.Verdict()
			if v.Status != admission.Completed || !v.ChargeFee {
				t.Errorf("\t%s\tTest 0:\tShould complete and charge, got %+v.", failed, v)
			} else {
				t.Logf("\t%s\tTest 0:\tShould complete and charge.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen execution overruns the declared limit.")
		{
			s := newState(t)

			b, _, err := s.QuoteFee([]budget.Instruction{
				budget.SetLimit(budget.Signatures, 0),
				budget.SetLimit(budget.Execution, 100),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to quote the budget: %v", failed, err)
			}

			m, err := s.NewMeter(b)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to construct the meter: %v", failed, err)
			}

			if err := m.Consume(budget.Execution, 150); !errors.Is(err, admission.ErrLimitExceededDuringRuntime) {
				t.Fatalf("\t%s\tTest 1:\tShould fail with ErrLimitExceededDuringRuntime, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail with ErrLimitExceededDuringRuntime.", success)

			// The genesis in play charges overruns.
			v := m.Verdict()
			if v.Status != admission.FailedDuringRuntime || !v.ChargeFee || v.Dimension != budget.Execution {
				t.Errorf("\t%s\tTest 1:\tShould fail and still charge, got %+v.", failed, v)
			} else {
				t.Logf("\t%s\tTest 1:\tShould fail and still charge.", success)
			}
		}
	}
}

func TestEpochLifecycle(t *testing.T) {
	t.Log("Given the need to validate the epoch rate lifecycle.")
	{
		t.Logf("\tTest 0:\tWhen advancing epochs and applying external rates.")
		{
			s := newState(t)

			if ep, rate := s.Rate(); ep != 0 || rate != 10 {
				t.Fatalf("\t%s\tTest 0:\tShould start at the genesis rate, got epoch %d rate %d.", failed, ep, rate)
			}
			t.Logf("\t%s\tTest 0:\tShould start at the genesis rate.", success)

			number, _, err := s.AdvanceEpoch()
			if err != nil || number != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould advance to epoch 1: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould advance to epoch 1.", success)

			if err := s.UpdateRate(1, 99); err == nil {
				t.Errorf("\t%s\tTest 0:\tShould refuse a second rate for the same epoch.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould refuse a second rate for the same epoch.", success)
			}

			if err := s.UpdateRate(2, 99); err != nil {
				t.Errorf("\t%s\tTest 0:\tShould accept the next epoch's rate: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 0:\tShould accept the next epoch's rate.", success)
			}

			if ep, rate := s.Rate(); ep != 2 || rate != 99 {
				t.Errorf("\t%s\tTest 0:\tShould read the applied rate, got epoch %d rate %d.", failed, ep, rate)
			} else {
				t.Logf("\t%s\tTest 0:\tShould read the applied rate.", success)
			}
		}
	}
}
