package admission_test

import (
	"errors"
	"testing"

	"github.com/lamportlabs/feemeter/foundation/meter/admission"
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var ceilings = budget.NewCeilings(budget.Budget{
	Signatures:    10_000,
	Execution:     1_400_000,
	AccountAccess: 64_000,
	Memory:        256_000,
	StorageGrowth: 10_000,
	Network:       10_000,
})

func TestFailFast(t *testing.T) {
	t.Log("Given the need to fail the moment consumption exceeds a declared limit.")
	{
		t.Logf("\tTest 0:\tWhen consuming 40, 40, 30 against an execution limit of 100.")
		{
			m, err := admission.New(budget.Budget{Execution: 100}, ceilings, admission.DefaultPolicy())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to admit the budget: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to admit the budget.", success)

			if err := m.Consume(budget.Execution, 40); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the first increment: %v", failed, err)
			}
			if err := m.Consume(budget.Execution, 40); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the second increment: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the first two increments.", success)

			err = m.Consume(budget.Execution, 30)
			if !errors.Is(err, admission.ErrLimitExceededDuringRuntime) {
				t.Fatalf("\t%s\tTest 0:\tShould fail the third increment with ErrLimitExceededDuringRuntime, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail the third increment with ErrLimitExceededDuringRuntime.", success)

			if m.Status() != admission.FailedDuringRuntime {
				t.Errorf("\t%s\tTest 0:\tShould be in FailedDuringRuntime, got %s.", failed, m.Status())
			} else {
				t.Logf("\t%s\tTest 0:\tShould be in FailedDuringRuntime.", success)
			}

			if consumed := m.Consumed().Execution; consumed != 100 {
				t.Errorf("\t%s\tTest 0:\tShould cap recorded consumption at 100, got %d.", failed, consumed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould cap recorded consumption at 100.", success)
			}

			if err := m.Consume(budget.Execution, 1); err == nil {
				t.Errorf("\t%s\tTest 0:\tShould refuse increments after failure.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould refuse increments after failure.", success)
			}
		}
	}
}

func TestLifecycle(t *testing.T) {
	t.Log("Given the need to validate the metering lifecycle transitions.")
	{
		t.Logf("\tTest 0:\tWhen a budget above a ceiling is declared.")
		{
			m, err := admission.New(budget.Budget{Network: 10_001}, ceilings, admission.DefaultPolicy())
			if !errors.Is(err, budget.ErrLimitExceededPreRuntime) {
				t.Fatalf("\t%s\tTest 0:\tShould get ErrLimitExceededPreRuntime, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get ErrLimitExceededPreRuntime.", success)

			if m.Status() != admission.RejectedPreRuntime {
				t.Errorf("\t%s\tTest 0:\tShould be in RejectedPreRuntime, got %s.", failed, m.Status())
			} else {
				t.Logf("\t%s\tTest 0:\tShould be in RejectedPreRuntime.", success)
			}

			v := m.Verdict()
			if v.ChargeFee {
				t.Errorf("\t%s\tTest 0:\tShould not charge on pre-runtime rejection.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould not charge on pre-runtime rejection.", success)
			}

			if err := m.Complete(); err == nil {
				t.Errorf("\t%s\tTest 0:\tShould refuse completion from a terminal state.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould refuse completion from a terminal state.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen execution finishes within every limit.")
		{
			m, err := admission.New(budget.Budget{Execution: 100, Memory: 50}, ceilings, admission.DefaultPolicy())
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to admit the budget: %v", failed, err)
			}

			if err := m.Consume(budget.Execution, 100); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould accept consuming exactly the limit: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould accept consuming exactly the limit.", success)

			if err := m.Complete(); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to complete: %v", failed, err)
			}

			v := m.Verdict()
			if v.Status != admission.Completed || !v.ChargeFee {
				t.Errorf("\t%s\tTest 1:\tShould complete and charge, got %+v.", failed, v)
			} else {
				t.Logf("\t%s\tTest 1:\tShould complete and charge.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen a zero dimension is consumed from.")
		{
			m, err := admission.New(budget.Budget{Execution: 100}, ceilings, admission.DefaultPolicy())
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to admit the budget: %v", failed, err)
			}

			if err := m.Consume(budget.StorageGrowth, 1); !errors.Is(err, admission.ErrLimitExceededDuringRuntime) {
				t.Errorf("\t%s\tTest 2:\tShould fail immediately on an undeclared dimension, got %v.", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould fail immediately on an undeclared dimension.", success)
			}
		}
	}
}

func TestChargePolicy(t *testing.T) {
	t.Log("Given the need to validate the charge-on-failure policy flag.")
	{
		type table struct {
			name   string
			policy admission.Policy
			charge bool
		}

		tt := []table{
			{name: "default charge", policy: admission.DefaultPolicy(), charge: true},
			{name: "free overruns", policy: admission.Policy{ChargeOnRuntimeFailure: false}, charge: false},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen overrunning under the %s policy.", testID, tst.name)
			{
				m, err := admission.New(budget.Budget{Execution: 10}, ceilings, tst.policy)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to admit the budget: %v", failed, testID, err)
				}

				if err := m.Consume(budget.Execution, 11); err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould overrun the declared limit.", failed, testID)
				}

				v := m.Verdict()
				if v.ChargeFee != tst.charge {
					t.Errorf("\t%s\tTest %d:\tShould resolve ChargeFee to %t, got %t.", failed, testID, tst.charge, v.ChargeFee)
				} else {
					t.Logf("\t%s\tTest %d:\tShould resolve ChargeFee to %t.", success, testID, tst.charge)
				}

				if v.Dimension != budget.Execution {
					t.Errorf("\t%s\tTest %d:\tShould report the failed dimension.", failed, testID)
				} else {
					t.Logf("\t%s\tTest %d:\tShould report the failed dimension.", success, testID)
				}
			}
		}
	}
}
