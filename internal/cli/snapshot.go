package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qom/internal/sqlite"
)

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Record the machine's types, objects and properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return saveSnapshot(cmd, s)
		},
	}
}

func saveSnapshot(cmd *cobra.Command, s *session) error {
	store, err := s.attachStore()
	if err != nil {
		return err
	}
	defer store.Detach()

	id, err := store.SaveSnapshot(s.rt)
	if err != nil {
		return sysError("save snapshot: %w", err)
	}
	s.log.Info().Str("snapshot", id).Str("db", store.Path()).Msg("snapshot saved")

	if flags.jsonMode {
		return printJSON(cmd, map[string]string{"snapshot_id": id})
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// snapshotObject is the JSON form of a recorded object.
type snapshotObject struct {
	sqlite.ObjectRecord
	Properties []sqlite.PropertyRecord `json:"properties,omitempty"`
}

func newSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots [snapshot-id]",
		Short: "List snapshots, or show the objects of one",
		Long: `Without arguments, list recorded snapshots oldest first. With a
snapshot ID, print each recorded object and its property values.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			store, err := s.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			if len(args) == 0 {
				return listSnapshots(cmd, store)
			}
			return showSnapshot(cmd, store, args[0])
		},
	}
}

func listSnapshots(cmd *cobra.Command, store *sqlite.Store) error {
	snaps, err := store.Snapshots()
	if err != nil {
		return sysError("list snapshots: %w", err)
	}
	if flags.jsonMode {
		return printJSON(cmd, snaps)
	}
	out := cmd.OutOrStdout()
	for _, snap := range snaps {
		fmt.Fprintf(out, "%s  %s  %d objects\n",
			snap.ID, snap.CreatedAt.Local().Format(time.DateTime), snap.ObjectCount)
	}
	return nil
}

func showSnapshot(cmd *cobra.Command, store *sqlite.Store, id string) error {
	objects, err := store.Objects(id)
	if err != nil {
		return err
	}

	result := make([]snapshotObject, 0, len(objects))
	for _, obj := range objects {
		props, err := store.Properties(id, obj.ID)
		if err != nil {
			return sysError("read properties: %w", err)
		}
		result = append(result, snapshotObject{ObjectRecord: obj, Properties: props})
	}

	if flags.jsonMode {
		return printJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	for _, obj := range result {
		fmt.Fprintf(out, "%s (%s) refs=%d\n", obj.Path, obj.Type, obj.RefCount)
		for _, p := range obj.Properties {
			fmt.Fprintf(out, "  %s = %s\n", p.Name, p.Value)
		}
	}
	return nil
}
