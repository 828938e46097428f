package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new private key",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			log.Fatal(err)
		}

		if err := os.MkdirAll(accountPath, 0755); err != nil {
			log.Fatal(err)
		}

		path := getPrivateKeyPath()
		if err := crypto.SaveECDSA(path, privateKey); err != nil {
			log.Fatal(err)
		}

		fmt.Println("account:", crypto.PubkeyToAddress(privateKey.PublicKey).String())
		fmt.Println("key file:", path)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
