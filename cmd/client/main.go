package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RichardKnop/ajxgate/internal/protocol"
)

const (
	cliName string = "ajxgate"
)

var (
	addressFlag string
	commandFlag string
)

var rootCmd = &cobra.Command{
	Use:           "client",
	Short:         "Interactive client speaking the AJX envelope protocol",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		aClient, err := protocol.NewClient(addressFlag)
		if err != nil {
			return err
		}
		defer aClient.Close()

		if commandFlag != "" {
			return send(cmd.OutOrStdout(), aClient, commandFlag)
		}
		return repl(cmd.InOrStdin(), cmd.OutOrStdout(), aClient)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&addressFlag, "addr", "a", "localhost:3000", "Address to dial")
	rootCmd.Flags().StringVarP(&commandFlag, "command", "c", "", "Run a single command and exit")
}

func printPrompt(w io.Writer) {
	fmt.Fprint(w, cliName, "> ")
}

func repl(r io.Reader, w io.Writer, aClient *protocol.Client) error {
	scanner := bufio.NewScanner(r)

	printPrompt(w)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		switch input {
		case ".help":
			fmt.Fprintln(w, ".help    - Show available commands")
			fmt.Fprintln(w, ".exit    - Closes program")
			fmt.Fprintln(w, "Commands: INIT, CREATE, INSERT, FIND, DESCRIBE, DROP, UPDATE, DELETE")
		case ".exit":
			fmt.Fprintln(w, "Goodbye!")
			return nil
		case "":
		default:
			if err := send(w, aClient, input); err != nil {
				return err
			}
		}
		printPrompt(w)
	}
	// Print an additional line if we encountered an EOF character
	fmt.Fprintln(w)
	return scanner.Err()
}

func send(w io.Writer, aClient *protocol.Client, command string) error {
	body, err := aClient.Send(command)
	if err != nil {
		return err
	}
	if err := protocol.PrintResult(w, body); err != nil {
		fmt.Fprintf(w, "%s\n", body)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
