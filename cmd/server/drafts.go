package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/config"
	"github.com/dom/wedge-builds/internal/repository/local"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	draftsOwner   string
	draftsDataDir string
	draftsFile    string
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Export or import a user's local drafts",
	Long: `Offline access to the local draft store. The store is locked by a
running server, so stop it first.`,
}

var draftsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's drafts as a JSON array",
	RunE:  runDraftsExport,
}

var draftsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace a user's drafts with a JSON array",
	RunE:  runDraftsImport,
}

func init() {
	draftsCmd.PersistentFlags().StringVar(&draftsOwner, "owner", "", "user id owning the drafts")
	draftsCmd.PersistentFlags().StringVar(&draftsDataDir, "data-dir", "", "local store directory (default $LOCAL_DATA_DIR or data/local)")
	draftsCmd.MarkPersistentFlagRequired("owner")

	draftsExportCmd.Flags().StringVar(&draftsFile, "out", "-", "output file, - for stdout")
	draftsImportCmd.Flags().StringVar(&draftsFile, "in", "-", "input file, - for stdin")

	draftsCmd.AddCommand(draftsExportCmd)
	draftsCmd.AddCommand(draftsImportCmd)
}

// openDrafts opens the local store and returns a draft service over it
// along with a func that closes the store.
func openDrafts() (*service.DraftService, func(), error) {
	dir := draftsDataDir
	if dir == "" {
		dir = config.LocalDataDir()
	}

	store, err := local.Open(dir, zap.NewNop())
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load()
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	svc := service.NewDraftService(store.Drafts(), cat, service.DefaultBackendTimeout, zap.NewNop())
	return svc, func() { store.Close() }, nil
}

func runDraftsExport(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := openDrafts()
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := svc.Export(cmd.Context(), draftsOwner)
	if err != nil {
		return err
	}

	if draftsFile == "-" {
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(draftsFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", draftsFile, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported drafts to %s\n", draftsFile)
	return nil
}

func runDraftsImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if draftsFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(draftsFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read drafts: %w", err)
	}

	svc, closeStore, err := openDrafts()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.Import(cmd.Context(), draftsOwner, data); err != nil {
		return err
	}
	drafts, err := svc.List(cmd.Context(), draftsOwner)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "imported %d drafts\n", len(drafts))
	return nil
}
