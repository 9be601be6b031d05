package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clinicalai/apiv1/assistant"
	"github.com/clinicalai/apiv1/config"
	"github.com/clinicalai/apiv1/logging"
	"github.com/clinicalai/apiv1/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var promptForKey bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the study assistant a question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(configFile)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Env, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("setting up logs: %w", err)
		}
		defer logger.Sync()

		if _, fromEnv := config.LookupEnv(utils.HF_API_KEY); !fromEnv && cfg.HFAPIKey == "" && promptForKey {
			key, err := readSecret(cmd.ErrOrStderr(), "Hugging Face API key (leave empty to skip): ")
			if err != nil {
				return err
			}
			cfg.HFAPIKey = key
		}

		chain := assistant.New(assistantOptions(cfg), nil, logger)
		answer := chain.Ask(cmd.Context(), assistant.Query{Prompt: strings.Join(args, " ")})
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n(source: %s)\n", answer.Text, answer.Source)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&promptForKey, "prompt-key", true, "prompt for the inference API key when it is not configured")
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(out io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
