package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm asks for the literal answer "yes" on in. assumeYes skips the prompt.
func confirm(in io.Reader, out io.Writer, prompt string, assumeYes bool) bool {
	if assumeYes {
		fmt.Fprintln(out, "Auto-confirmed via --yes flag")
		return true
	}

	fmt.Fprintf(out, "%s Type 'yes' to confirm: ", prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
