package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qom/pkg/qom"
	"github.com/mesh-intelligence/qom/pkg/visitor"
)

// objectInfo is the JSON form of a resolved object.
type objectInfo struct {
	Path       string             `json:"path"`
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Interface  bool               `json:"interface,omitempty"`
	Properties []qom.PropertyInfo `json:"properties"`
}

func newResolveCmd() *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve an absolute or partial path to an object",
		Long: `Resolve a path. An absolute path starts with "/" and is walked from the
root. A partial path matches wherever it occurs in the tree and must
match exactly one object.

Examples:
  qomctl resolve /pci/nic0
  qomctl resolve nic0
  qomctl resolve /pci --type hotplug-handler`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			obj, err := s.rt.ResolvePathType(args[0], typeName)
			if err != nil {
				return err
			}

			info := objectInfo{
				Path:       obj.CanonicalPath(),
				Type:       obj.TypeName(),
				ID:         obj.ID(),
				Interface:  obj.IsInterface(),
				Properties: obj.Properties(),
			}
			if flags.jsonMode {
				return printJSON(cmd, info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) %s\n", info.Path, info.Type, info.ID)
			for _, p := range info.Properties {
				fmt.Fprintf(out, "  %s: %s%s\n", p.Name, p.Type, access(p))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "require the object to cast to this type")
	return cmd
}

func access(p qom.PropertyInfo) string {
	switch {
	case p.Readable && p.Writable:
		return ""
	case p.Readable:
		return " (read-only)"
	case p.Writable:
		return " (write-only)"
	default:
		return " (no access)"
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path> <property>",
		Short: "Read a property",
		Long: `Read a property of the object at path.

Example:
  qomctl get nic0 product`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			obj, err := s.rt.ResolvePath(args[0])
			if err != nil {
				return err
			}
			return printProperty(cmd, obj, args[1])
		},
	}
}

func newSetCmd() *cobra.Command {
	var snapshot bool
	cmd := &cobra.Command{
		Use:   "set <path> <property> <value>",
		Short: "Write a property and print the result",
		Long: `Write a property of the object at path from its text form. Booleans
accept true/false/1/0, integers accept decimal text, and link properties
take a path. The machine lives only for this command; use --snapshot to
record the result.

Examples:
  qomctl set serial0 label "debug console"
  qomctl set eth attached disk0 --snapshot`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			obj, err := s.rt.ResolvePath(args[0])
			if err != nil {
				return err
			}
			if err := obj.SetProperty(visitor.NewStringInput(args[2]), args[1]); err != nil {
				return err
			}
			// A write-only property has nothing to echo.
			if err := printProperty(cmd, obj, args[1]); err != nil && !errors.Is(err, qom.ErrPermissionDenied) {
				return err
			}
			if snapshot {
				return saveSnapshot(cmd, s)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "record a snapshot after the write")
	return cmd
}

// printProperty reads and prints one property.
func printProperty(cmd *cobra.Command, obj *qom.Object, name string) error {
	typ, err := obj.PropertyType(name)
	if err != nil {
		return err
	}
	out := visitor.NewOutput()
	if err := obj.GetProperty(out, name); err != nil {
		return err
	}
	if flags.jsonMode {
		return printJSON(cmd, map[string]any{
			"path":  obj.CanonicalPath(),
			"name":  name,
			"type":  typ,
			"value": out.Value(),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cast.ToString(out.Value()))
	return nil
}
