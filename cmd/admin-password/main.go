// Command admin-password generates the bcrypt hash expected by
// SNACKBOX_ADMIN_PASSWORD_HASH.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	var cost int
	flag.IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	password := flag.Arg(0)
	if password == "" {
		slog.Error("usage: admin-password [--cost N] <password>")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		slog.Error("hash failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
