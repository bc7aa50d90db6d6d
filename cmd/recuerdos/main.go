// Command recuerdos is a terminal front end for the recuerdos API.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AnshRaj112/recuerdos-backend/pkg/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", errorText(err))
		os.Exit(1)
	}
}

// errorText shows API failures with their display message and usage
// errors as cobra wrote them.
func errorText(err error) string {
	var ce *client.Error
	if errors.As(err, &ce) {
		return client.Message(err)
	}
	return err.Error()
}
