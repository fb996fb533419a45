package main

import (
	"fmt"
	"strconv"

	"blogledger/app/models"
	"blogledger/app/pda"

	"github.com/spf13/cobra"
)

// deriveIDCount is how many numeric ids follow the author for each kind
var deriveIDCount = map[string]int{
	"blog":    0,
	"profile": 0,
	"post":    1,
	"comment": 2,
}

func deriveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive <blog|profile|post|comment> <author> [postId] [commentId]",
		Short: "Print the derived address and bump of a record",
		Example: `  blogledger derive blog 4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T
  blogledger derive comment 4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T 0 3`,
		Args: cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			author, err := models.ParsePubkey(args[1])
			if err != nil {
				return fmt.Errorf("invalid author: %w", err)
			}
			ids := make([]uint64, 0, 2)
			for _, arg := range args[2:] {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}

			want, ok := deriveIDCount[args[0]]
			if !ok {
				return fmt.Errorf("unknown record kind %q", args[0])
			}
			if len(ids) != want {
				return fmt.Errorf("%s takes %d id argument(s), got %d", args[0], want, len(ids))
			}

			deriver := pda.NewDeriver(cfg.ProgramKey())
			var ref pda.Ref
			switch args[0] {
			case "blog":
				ref, err = deriver.Blog(author)
			case "profile":
				ref, err = deriver.Profile(author)
			case "post":
				ref, err = deriver.Post(author, ids[0])
			case "comment":
				ref, err = deriver.Comment(author, ids[0], ids[1])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nbump: %d\n", ref.Address, ref.Bump)
			return nil
		},
	}
	return cmd
}
