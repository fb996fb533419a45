package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"blogledger/app/middleware"
	"blogledger/vanity"

	"github.com/spf13/cobra"
)

func keygenCommand() *cobra.Command {
	var (
		prefix  string
		workers int
		out     string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an identity keypair, optionally with a vanity prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			logger := commonRun(cmd, cfg)

			key, err := vanity.Generate(cmd.Context(), prefix, workers, logger)
			if err != nil {
				return err
			}
			if err := key.Save(out); err != nil {
				return fmt.Errorf("failed to save keypair: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "identity: %s\nkeypair: %s\nattempts: %d\n",
				key.Public, out, key.Attempts)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "base58 prefix the identity must start with")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of search workers (default: number of CPUs)")
	cmd.Flags().StringVarP(&out, "out", "o", "id.json", "where to write the keypair file")
	return cmd
}

// signCommand prints the headers for a signed API request, for use with curl
func signCommand() *cobra.Command {
	var (
		keyFile string
		method  string
		data    string
	)
	cmd := &cobra.Command{
		Use:   "sign <request-uri>",
		Short: "Sign an API request with a keypair file",
		Example: `  blogledger sign --key id.json --method POST --data '{"title":"t","content":"c"}' /api/posts
  blogledger sign --key id.json --method PUT --data @update.json '/api/posts/<address>?bump=254'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := url.ParseRequestURI(args[0])
			if err != nil {
				return fmt.Errorf("invalid request uri: %w", err)
			}
			key, err := loadKey(keyFile)
			if err != nil {
				return err
			}
			body, err := readData(cmd.InOrStdin(), data)
			if err != nil {
				return err
			}
			identity, signature := middleware.Sign(key.Private, strings.ToUpper(method), uri.RequestURI(), body)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n%s: %s\n",
				middleware.IdentityHeader, identity,
				middleware.SignatureHeader, signature)
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyFile, "key", "k", "id.json", "keypair file written by keygen")
	cmd.Flags().StringVarP(&method, "method", "X", "POST", "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body, @file to read a file or @- for stdin")
	return cmd
}

func loadKey(path string) (*vanity.Key, error) {
	key, err := vanity.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair: %w", err)
	}
	return key, nil
}

// readData resolves a curl-style --data argument
func readData(stdin io.Reader, data string) ([]byte, error) {
	name, ok := strings.CutPrefix(data, "@")
	if !ok {
		return []byte(data), nil
	}
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}
