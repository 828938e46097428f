package budget

import "fmt"

// Instruction represents a single compute-budget instruction attached to a
// transaction. Each instruction requests an upper bound for one resource
// dimension.
type Instruction struct {
	Kind  Dimension `json:"kind"`
	Units uint64    `json:"units"`
}

// SetLimit constructs an instruction requesting an upper bound for the
// specified dimension.
func SetLimit(dim Dimension, units uint64) Instruction {
	return Instruction{Kind: dim, Units: units}
}

// FromInstructions builds a budget from the compute-budget instructions
// attached to a transaction. A dimension that is never requested takes the
// protocol default for that dimension, capped at its ceiling. Requesting the
// same dimension twice, or an unknown dimension, fails the declaration.
func FromInstructions(instructions []Instruction, defaults Budget, ceilings Ceilings) (Budget, error) {
	var seen [Network + 1]bool

	var b Budget
	for _, dim := range Dimensions {
		def := defaults.Get(dim)
		if ceiling := ceilings.Budget.Get(dim); def > ceiling {
			def = ceiling
		}
		b.set(dim, def)
	}

	for i, instruction := range instructions {
		if instruction.Kind < Signatures || instruction.Kind > Network {
			return Budget{}, fmt.Errorf("instruction %d unknown dimension %d: %w", i, instruction.Kind, ErrInvalidDeclaration)
		}
		if seen[instruction.Kind] {
			return Budget{}, fmt.Errorf("instruction %d duplicate dimension %s: %w", i, instruction.Kind, ErrInvalidDeclaration)
		}
		seen[instruction.Kind] = true

		b.set(instruction.Kind, instruction.Units)
	}

	if err := b.Validate(ceilings); err != nil {
		return Budget{}, err
	}

	return b, nil
}
