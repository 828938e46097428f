package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lamportlabs/feemeter/foundation/meter/budget"
	"github.com/lamportlabs/feemeter/foundation/meter/transaction"
	"github.com/spf13/cobra"
)

var (
	chainID uint16
	nonce   uint64
	to      string
	value   uint64
	bid     uint64
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign and submit a transaction with its resource budget",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		send(privateKey)
	},
}

func send(privateKey *ecdsa.PrivateKey) {
	toID, err := transaction.ToAccountID(to)
	if err != nil {
		log.Fatal(err)
	}

	var instructions []budget.Instruction
	if signatures > 0 {
		instructions = append(instructions, budget.SetLimit(budget.Signatures, signatures))
	}
	if execution > 0 {
		instructions = append(instructions, budget.SetLimit(budget.Execution, execution))
	}
	if accountAccess > 0 {
		instructions = append(instructions, budget.SetLimit(budget.AccountAccess, accountAccess))
	}
	if memory > 0 {
		instructions = append(instructions, budget.SetLimit(budget.Memory, memory))
	}
	if storageGrowth > 0 {
		instructions = append(instructions, budget.SetLimit(budget.StorageGrowth, storageGrowth))
	}
	if network > 0 {
		instructions = append(instructions, budget.SetLimit(budget.Network, network))
	}

	tx, err := transaction.New(chainID, nonce, toID, value, bid, instructions)
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(body))
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Uint16Var(&chainID, "chain", 1, "Chain id the transaction is bound to.")
	sendCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Unique id for the transaction.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the value.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Lamports to send.")
	sendCmd.Flags().Uint64VarP(&bid, "bid", "b", 0, "Priority-fee bid in lamports.")
	sendCmd.Flags().Uint64Var(&signatures, "signatures", 0, "Signature verification units.")
	sendCmd.Flags().Uint64Var(&execution, "execution", 0, "VM execution units.")
	sendCmd.Flags().Uint64Var(&accountAccess, "account-access", 0, "Account load/store units.")
	sendCmd.Flags().Uint64Var(&memory, "memory", 0, "Memory footprint units.")
	sendCmd.Flags().Uint64Var(&storageGrowth, "storage-growth", 0, "Storage growth units.")
	sendCmd.Flags().Uint64Var(&network, "network", 0, "Network ingress/egress units.")
}
