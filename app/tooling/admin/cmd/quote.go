package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	signatures    uint64
	execution     uint64
	accountAccess uint64
	memory        uint64
	storageGrowth uint64
	network       uint64
)

// quoteCmd represents the quote command.
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote the base fee for a resource budget",
	Run: func(cmd *cobra.Command, args []string) {
		quote()
	},
}

func quote() {
	type instruction struct {
		Kind  string `json:"kind"`
		Units uint64 `json:"units"`
	}

	payload := struct {
		Instructions []instruction `json:"instructions"`
	}{
		Instructions: []instruction{
			{Kind: "signatures", Units: signatures},
			{Kind: "execution", Units: execution},
			{Kind: "account_access", Units: accountAccess},
			{Kind: "memory", Units: memory},
			{Kind: "storage_growth", Units: storageGrowth},
			{Kind: "network", Units: network},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/fees/quote", url), "application/json", bytes.NewBuffer(data))
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
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().Uint64Var(&signatures, "signatures", 0, "Signature verification units.")
	quoteCmd.Flags().Uint64Var(&execution, "execution", 0, "VM execution units.")
	quoteCmd.Flags().Uint64Var(&accountAccess, "account-access", 0, "Account load/store units.")
	quoteCmd.Flags().Uint64Var(&memory, "memory", 0, "Memory footprint units.")
	quoteCmd.Flags().Uint64Var(&storageGrowth, "storage-growth", 0, "Storage growth units.")
	quoteCmd.Flags().Uint64Var(&network, "network", 0, "Network ingress/egress units.")
}
