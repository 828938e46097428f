package mempool_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/fee"
	"github.com/lamportlabs/feemeter/foundation/meter/mempool"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// Private keys for the two submitting accounts used in these tests.
const (
	keyOne = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	keyTwo = "aed31b6b5a341af8f27e66fb0b7633cf20fc27049e3eb7f6f623a4655b719ebb"
)

func sign(hexKey string, nonce uint64, bid uint64) (transaction.MeteredTx, error) {
	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return transaction.MeteredTx{}, err
	}

	tx, err := transaction.New(1, nonce, "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", 100, bid, nil)
	if err != nil {
		return transaction.MeteredTx{}, err
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		return transaction.MeteredTx{}, err
	}

	return transaction.NewMeteredTx(signedTx, budget.Budget{Execution: 200_000}, fee.Quote{}), nil
}

func TestCRUD(t *testing.T) {
	t.Log("Given the need to validate the mempool api.")
	{
		t.Logf("\tTest 0:\tWhen handling a set of transactions.")
		{
			mp, err := mempool.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the mempool: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct the mempool.", success)

			for nonce := uint64(1); nonce <= 3; nonce++ {
				tx, err := sign(keyOne, nonce, 10)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transaction: %v", failed, err)
				}
				if _, err := mp.Upsert(tx); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to add a new transaction: %v", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add new transactions.", success)

			if mp.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould count 3 transactions, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould count 3 transactions.", success)

			// An upsert with the same account and nonce replaces in place.
			tx, err := sign(keyOne, 2, 99)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the replacement: %v", failed, err)
			}
			if _, err := mp.Upsert(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to upsert the replacement: %v", failed, err)
			}
			if mp.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould still count 3 transactions, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould replace on the same account and nonce.", success)

			if err := mp.Delete(tx); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to remove a transaction: %v", failed, err)
			}
			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould count 2 transactions after delete, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be able to remove a transaction.", success)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould be able to truncate the mempool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to truncate the mempool.", success)
		}

		t.Logf("\tTest 1:\tWhen constructing with an unknown strategy.")
		{
			if _, err := mempool.NewWithStrategy("first_come"); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould refuse an unknown strategy.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould refuse an unknown strategy.", success)
			}
		}
	}
}

func TestPickBest(t *testing.T) {
	t.Log("Given the need to select the best-bidding transactions in nonce order.")
	{
		t.Logf("\tTest 0:\tWhen two accounts bid with chained nonces.")
		{
			mp, err := mempool.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the mempool: %v", failed, err)
			}

			type entry struct {
				key   string
				nonce uint64
				bid   uint64
			}

			entries := []entry{
				{keyOne, 1, 10},
				{keyOne, 2, 500},
				{keyTwo, 1, 100},
				{keyTwo, 2, 20},
			}

			byBid := make(map[uint64]string)
			for _, e := range entries {
				tx, err := sign(e.key, e.nonce, e.bid)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transaction: %v", failed, err)
				}
				if _, err := mp.Upsert(tx); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to add the transaction: %v", failed, err)
				}

				from, err := tx.FromAccount()
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to extract the from account: %v", failed, err)
				}
				byBid[e.bid] = string(from)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the pool.", success)

			// Taking one transaction must take the first nonce of the
			// best-bidding account. Account two's nonce 1 bids 100 while
			// account one's bids only 10; account one's 500 bid sits behind
			// its own nonce 1 and must not jump the queue.
			best := mp.PickBest(1)
			if len(best) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould pick exactly one transaction, got %d.", failed, len(best))
			}
			from, err := best[0].FromAccount()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to extract the from account: %v", failed, err)
			}
			if string(from) != byBid[100] || best[0].Nonce != 1 {
				t.Errorf("\t%s\tTest 0:\tShould pick the best first nonce, got %s:%d.", failed, from, best[0].Nonce)
			} else {
				t.Logf("\t%s\tTest 0:\tShould pick the best first nonce.", success)
			}

			// Taking everything must keep each account's nonces in order.
			all := mp.PickBest(-1)
			if len(all) != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould pick all 4 transactions, got %d.", failed, len(all))
			}

			seen := make(map[string]uint64)
			for _, tx := range all {
				from, err := tx.FromAccount()
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to extract the from account: %v", failed, err)
				}
				if tx.Nonce <= seen[string(from)] {
					t.Fatalf("\t%s\tTest 0:\tShould keep nonce order for %s: saw %d after %d.", failed, from, tx.Nonce, seen[string(from)])
				}
				seen[string(from)] = tx.Nonce
			}
			t.Logf("\t%s\tTest 0:\tShould keep nonce order per account.", success)
		}
	}
}
