package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/timokae/ma-node/internal/cli/output"
	"github.com/timokae/ma-node/internal/store/filestore"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory <state-dir>",
	Short: "List the files held in a node's state directory, offline",
	Args:  cobra.ExactArgs(1),
	RunE:  runInventory,
}

func runInventory(cmd *cobra.Command, args []string) error {
	stateDir := args[0]

	backend, err := filestore.NewLocalBackend(stateDir)
	if err != nil {
		return err
	}
	store, err := filestore.New(stateDir, backend, 0)
	if err != nil {
		return err
	}

	hashes := store.Hashes()
	if len(hashes) == 0 {
		fmt.Println("no files held")
		return nil
	}

	table := output.NewTableData("HASH", "FILENAME", "CONTENT TYPE", "SIZE")
	for _, h := range hashes {
		entry, _ := store.Get(h)
		size, err := backend.Size(cmd.Context(), h)
		if err != nil {
			return fmt.Errorf("failed to read size for %s: %w", h, err)
		}
		table.AddRow(entry.Hash, entry.FileName, entry.ContentType, strconv.FormatInt(size, 10))
	}
	output.PrintTable(os.Stdout, table)
	return nil
}
