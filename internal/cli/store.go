package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	morphio "github.com/matzehuels/neurite/pkg/io"
	"github.com/matzehuels/neurite/pkg/storage"
	"github.com/matzehuels/neurite/pkg/storage/badgerdb"
	"github.com/matzehuels/neurite/pkg/swc"
)

// storeOpts holds the flags shared by all store subcommands.
type storeOpts struct {
	dir    string // file store directory (defaults to the XDG data dir)
	badger string // badger database path; when set, overrides the file store
}

// newStoreCmd creates the store command group for managing named
// morphologies. Cells are kept either as JSON documents under a directory
// (the default) or in a Badger database when --badger is given.
func newStoreCmd() *cobra.Command {
	var opts storeOpts

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the local morphology store",
	}

	cmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "store directory (default: XDG data dir)")
	cmd.PersistentFlags().StringVar(&opts.badger, "badger", "", "use a Badger database at this path instead of a directory")

	cmd.AddCommand(newStoreImportCmd(&opts))
	cmd.AddCommand(newStoreExportCmd(&opts))
	cmd.AddCommand(newStoreListCmd(&opts))
	cmd.AddCommand(newStoreDeleteCmd(&opts))

	return cmd
}

// openStore opens the backend selected by the store flags.
func openStore(opts *storeOpts) (storage.Store, error) {
	if opts.badger != "" {
		return badgerdb.Open(badgerdb.DefaultConfig(opts.badger))
	}
	dir := opts.dir
	if dir == "" {
		base, err := dataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve store dir: %w", err)
		}
		dir = filepath.Join(base, "store")
	}
	return storage.NewFileStore(dir)
}

// newStoreImportCmd creates the "store import" subcommand. It parses an SWC
// file and saves the morphology under a name, defaulting to the file's base
// name without extension.
func newStoreImportCmd(store *storeOpts) *cobra.Command {
	var name, tagMap string
	var metaPairs []string

	cmd := &cobra.Command{
		Use:   "import <file.swc>",
		Short: "Parse an SWC file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreImport(cmd.Context(), store, args[0], name, tagMap, metaPairs)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "name to store the cell under (default: file base name)")
	cmd.Flags().StringVar(&tagMap, "tag-map", "", "TOML file mapping SWC tags to label names")
	cmd.Flags().StringArrayVar(&metaPairs, "meta", nil, "metadata entry as key=value (repeatable)")

	return cmd
}

func runStoreImport(ctx context.Context, store *storeOpts, input, name, tagMap string, metaPairs []string) error {
	logger := loggerFromContext(ctx)

	if name == "" {
		base := filepath.Base(input)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	meta, err := parseMeta(metaPairs)
	if err != nil {
		return err
	}

	var tags swc.TagMap
	if tagMap != "" {
		if tags, err = swc.LoadTagMap(tagMap); err != nil {
			return err
		}
	}

	sp := newSpinnerWithContext(ctx, fmt.Sprintf("Importing %s", input))
	sp.Start()

	m, err := swc.ParseFile(input, tags)
	if err != nil {
		sp.StopWithError(fmt.Sprintf("Failed to parse %s", input))
		return err
	}
	logger.Debugf("Parsed %s: %d branches", input, len(m.Branches()))

	s, err := openStore(store)
	if err != nil {
		sp.Stop()
		return err
	}
	defer s.Close()

	if err := s.Save(ctx, name, m, meta); err != nil {
		sp.StopWithError(fmt.Sprintf("Failed to store %q", name))
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("Imported %s as %q", input, name))
	return nil
}

// parseMeta converts repeated key=value flags into a metadata map.
func parseMeta(pairs []string) (storage.Meta, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(storage.Meta, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta entry %q, want key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}

// newStoreExportCmd creates the "store export" subcommand. It loads a named
// morphology and writes it back out as SWC or JSON.
func newStoreExportCmd(store *storeOpts) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a stored cell to an SWC or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreExport(cmd.Context(), store, args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "swc", "output format: swc or json")

	return cmd
}

func runStoreExport(ctx context.Context, store *storeOpts, name, output, format string) error {
	if format != "swc" && format != "json" {
		return fmt.Errorf("invalid format: %s (must be 'swc' or 'json')", format)
	}

	s, err := openStore(store)
	if err != nil {
		return err
	}
	defer s.Close()

	m, _, err := s.Load(ctx, name)
	if err != nil {
		return err
	}

	if output == "" {
		// Nested store names flatten to the base segment for local files.
		output = filepath.Base(name) + "." + format
	}

	switch format {
	case "swc":
		err = swc.WriteFile(output, m)
	case "json":
		err = morphio.ExportJSON(m, output)
	}
	if err != nil {
		return err
	}
	printFile(output)
	return nil
}

// newStoreListCmd creates the "store list" subcommand.
func newStoreListCmd(store *storeOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored cells",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(store)
			if err != nil {
				return err
			}
			defer s.Close()

			infos, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("Store is empty")
				return nil
			}
			for _, info := range infos {
				printKeyValue(info.Name, describeMeta(info.Meta))
			}
			return nil
		},
	}
}

// describeMeta renders metadata for a list line, id first.
func describeMeta(meta storage.Meta) string {
	id, _ := meta[storage.MetaKeyID].(string)
	if extras := len(meta) - 1; extras > 0 {
		return fmt.Sprintf("%s (+%d metadata)", id, extras)
	}
	return id
}

// newStoreDeleteCmd creates the "store delete" subcommand.
func newStoreDeleteCmd(store *storeOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(store)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %q", args[0])
			return nil
		},
	}
}
