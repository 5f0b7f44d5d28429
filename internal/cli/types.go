package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qom/pkg/qom"
)

// typeInfo is the JSON form of a registered type.
type typeInfo struct {
	Name       string   `json:"name"`
	Parent     string   `json:"parent,omitempty"`
	Abstract   bool     `json:"abstract"`
	Interfaces []string `json:"interfaces,omitempty"`
}

func newTypesCmd() *cobra.Command {
	var (
		implements string
		abstract   bool
	)
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List registered types",
		Long: `List the types registered with the runtime, sorted by name.

Examples:
  qomctl types
  qomctl types --implements device --abstract
  qomctl types --implements hotplug-handler`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			if implements != "" {
				if _, ok := s.rt.LookupType(implements); !ok {
					return fmt.Errorf("unknown type %q", implements)
				}
			}
			return printTypes(cmd, s.rt, implements, abstract)
		},
	}
	cmd.Flags().StringVar(&implements, "implements", "", "only types derived from this type")
	cmd.Flags().BoolVar(&abstract, "abstract", false, "include abstract types")
	return cmd
}

func printTypes(cmd *cobra.Command, rt *qom.Runtime, implements string, abstract bool) error {
	var infos []typeInfo
	rt.ForeachClass(func(c *qom.Class) {
		t := c.Type()
		info := typeInfo{
			Name:       t.Name(),
			Abstract:   t.IsAbstract(),
			Interfaces: t.Interfaces(),
		}
		if p := t.Parent(); p != nil {
			info.Parent = p.Name()
		}
		infos = append(infos, info)
	}, implements, abstract)

	if flags.jsonMode {
		return printJSON(cmd, infos)
	}

	out := cmd.OutOrStdout()
	for _, info := range infos {
		line := info.Name
		if info.Parent != "" {
			line += " : " + info.Parent
		}
		if info.Abstract {
			line += " (abstract)"
		}
		if len(info.Interfaces) > 0 {
			line += " implements " + strings.Join(info.Interfaces, ", ")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
