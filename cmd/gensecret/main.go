package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const SecretKeyBytesLen = 32

func main() {
	pair := pflag.BoolP("pair", "p", false, "Print two different secrets: for access and refresh tokens")
	pflag.Parse()

	count := 1
	if *pair {
		count = 2
	}

	if err := writeSecrets(os.Stdout, rand.Reader, count); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

// writeSecrets writes count hex encoded secrets, one per line
func writeSecrets(w io.Writer, random io.Reader, count int) error {
	for range count {
		b := make([]byte, SecretKeyBytesLen)
		if _, err := io.ReadFull(random, b); err != nil {
			return err
		}

		if _, err := fmt.Fprintln(w, hex.EncodeToString(b)); err != nil {
			return err
		}
	}
	return nil
}
