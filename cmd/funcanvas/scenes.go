package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/imamik/funcanvas/internal/store"
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List stored scenes",
	Args:  cobra.NoArgs,
	RunE:  runScenes,
}

var scenesRmCmd = &cobra.Command{
	Use:   "rm <scene>...",
	Short: "Delete stored scenes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenesRm,
}

func init() {
	scenesCmd.AddCommand(scenesRmCmd)
}

func runScenes(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no scenes in %s\n", st.Path())
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tOBJECTS\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%gx%g\t%d\t%s\n", e.Name, e.Width, e.Height, e.Objects, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runScenesRm(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, name := range args {
		if err := st.Delete(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
	}
	return nil
}
