// Package transaction defines the transaction forms the metering node works
// with: the user-constructed declaration, its signed envelope, and the
// metered record carrying the fee quote produced at admission.
package transaction

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/fee"
	"github.com/lamportlabs/feemeter/foundation/meter/signature"
)

// AccountID represents an account id that is used to charge fees and
// receive value. It has a hex-encoded address format.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).String())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	const addressLength = 20

	if has0xPrefix(a) {
		a = a[2:]
	}

	return len(a) == 2*addressLength && isHex(a)
}

// =============================================================================

// Tx is the transactional information a user constructs and signs. The
// compute-budget instructions declare the resource limits the transaction
// commits to; they are immutable once the transaction is signed.
type Tx struct {
	ChainID      uint16               `json:"chain_id"`     // Network the transaction is bound to.
	Nonce        uint64               `json:"nonce"`        // Unique id for the transaction supplied by the user.
	ToID         AccountID            `json:"to"`           // Account receiving the value of the transaction.
	Value        uint64               `json:"value"`        // Lamports transferred by this transaction.
	PriorityFee  uint64               `json:"priority_fee"` // Lamport bid for earlier inclusion, paid on top of the base fee.
	Instructions []budget.Instruction `json:"instructions"` // Compute-budget instructions declaring resource limits.
}

// New constructs a new transaction.
func New(chainID uint16, nonce uint64, toID AccountID, value uint64, priorityFee uint64, instructions []budget.Instruction) (Tx, error) {
	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		ChainID:      chainID,
		Nonce:        nonce,
		ToID:         toID,
		Value:        value,
		PriorityFee:  priorityFee,
		Instructions: instructions,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	if !tx.ToID.IsAccountID() {
		return SignedTx{}, fmt.Errorf("to account is not properly formatted")
	}

	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients
// provide transactions for metering and inclusion.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the transaction has a proper signature that conforms to
// this network's standards, is bound to this chain, and carries a properly
// formatted to account.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("transaction bound to chain %d, this chain is %d", tx.ChainID, chainID)
	}

	if !tx.ToID.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	if err := signature.Verify(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id that signed the transaction.
func (tx SignedTx) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	return AccountID(address), err
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.String(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d", from, tx.Nonce)
}

// =============================================================================

// MeteredTx represents the transaction as the node holds it after admission:
// the signed declaration plus the fee quote computed from its budget and the
// epoch rate in effect at admission time. The quote is final for this
// attempt.
type MeteredTx struct {
	SignedTx
	Budget    budget.Budget `json:"budget"`    // Budget resolved from the compute-budget instructions.
	Quote     fee.Quote     `json:"quote"`     // Fee breakdown at the admission-time rate.
	TimeStamp uint64        `json:"timestamp"` // The time the transaction was received.
}

// NewMeteredTx constructs a metered transaction record.
func NewMeteredTx(signedTx SignedTx, b budget.Budget, quote fee.Quote) MeteredTx {
	return MeteredTx{
		SignedTx:  signedTx,
		Budget:    b,
		Quote:     quote,
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}

// =============================================================================

// has0xPrefix validates the account starts with a 0x.
func has0xPrefix(a AccountID) bool {
	return len(a) >= 2 && a[0] == '0' && (a[1] == 'x' || a[1] == 'X')
}

// isHex validates whether each byte is a valid hexadecimal string.
func isHex(a AccountID) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns a bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
