package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/qom/pkg/qom"
)

// treeNode is one object of the composition tree.
type treeNode struct {
	Name     string      `json:"name" yaml:"name"`
	Type     string      `json:"type" yaml:"type"`
	Path     string      `json:"path" yaml:"path"`
	Links    []treeLink  `json:"links,omitempty" yaml:"links,omitempty"`
	Children []*treeNode `json:"children,omitempty" yaml:"children,omitempty"`
}

type treeLink struct {
	Name   string `json:"name" yaml:"name"`
	Target string `json:"target" yaml:"target"`
}

func newTreeCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the composition tree",
		Long: `Print every object reachable from the root with its type.

Examples:
  qomctl tree
  qomctl tree --machine board.toml --yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			root, err := buildTree("", s.rt.Root())
			if err != nil {
				return err
			}

			switch {
			case flags.jsonMode:
				return printJSON(cmd, root)
			case asYAML:
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(root); err != nil {
					return fmt.Errorf("encode tree: %w", err)
				}
				return enc.Close()
			default:
				printTree(cmd.OutOrStdout(), root, 0)
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "output in YAML format")
	return cmd
}

func buildTree(name string, obj *qom.Object) (*treeNode, error) {
	node := &treeNode{
		Name: name,
		Type: obj.TypeName(),
		Path: obj.CanonicalPath(),
	}
	for _, info := range obj.Properties() {
		if !strings.HasPrefix(info.Type, "link<") {
			continue
		}
		target, err := obj.GetString(info.Name)
		if err != nil {
			return nil, err
		}
		node.Links = append(node.Links, treeLink{Name: info.Name, Target: target})
	}
	err := obj.ForeachChild(func(name string, child *qom.Object) error {
		c, err := buildTree(name, child)
		if err != nil {
			return err
		}
		node.Children = append(node.Children, c)
		return nil
	})
	return node, err
}

func printTree(w io.Writer, node *treeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	name := node.Name
	if depth == 0 {
		name = node.Path
	}
	fmt.Fprintf(w, "%s%s (%s)\n", indent, name, node.Type)
	for _, l := range node.Links {
		target := l.Target
		if target == "" {
			target = "<unset>"
		}
		fmt.Fprintf(w, "%s  %s -> %s\n", indent, l.Name, target)
	}
	for _, child := range node.Children {
		printTree(w, child, depth+1)
	}
}
