package main

import (
	"bufio"
	"fmt"
	"strings"

	"phonefinder/internal/model"

	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a guided conversation",
		Long:  `Describe the phone you want; the advisor asks for missing details and searches once it knows enough. Type "exit" to quit.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := newUI(cmd.OutOrStdout())
			state := model.NewState("cli")
			out.Bot(a.Controller.Greeting(state).Message)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "you> ")
				if !scanner.Scan() {
					fmt.Fprintln(cmd.OutOrStdout())
					return scanner.Err()
				}
				text := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(text) {
				case "":
					continue
				case "exit", "quit", "bye":
					out.Bot("Goodbye!")
					return nil
				}

				reply := a.Controller.Handle(cmd.Context(), state, text)
				out.Bot(reply.Message)
				switch reply.Kind {
				case model.ReplyResults:
					out.Results(reply.Results, reply.Total)
				case model.ReplyUnavailable:
					out.Error("Catalog unavailable")
				}
			}
		},
	}
}
