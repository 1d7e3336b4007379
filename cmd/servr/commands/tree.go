package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/servr/cmd/servr/cmdutil"
	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/internal/cli/output"
	"github.com/marmos91/servr/internal/cli/timeutil"
	"github.com/marmos91/servr/pkg/config"
	"github.com/marmos91/servr/pkg/metadata"
)

var treeEmail string

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print an owner's node tree",
	Long: `Print the files and folders of one owner straight from the metadata store.

Folder sizes are the stored aggregates, so the output can be used to check
them against the files below. No download URLs are signed.

Examples:
  servr tree --email alice@example.com
  servr tree --email alice@example.com -o json`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&treeEmail, "email", "", "Owner email (required)")
	_ = treeCmd.MarkFlagRequired("email")
}

// TreeNode is a node with its children, sorted by name.
type TreeNode struct {
	ID           uuid.UUID         `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Kind         metadata.Kind     `json:"kind" yaml:"kind"`
	FileType     metadata.FileType `json:"file_type" yaml:"file_type"`
	Size         int64             `json:"size" yaml:"size"`
	LastModified time.Time         `json:"last_modified" yaml:"last_modified"`
	Children     []*TreeNode       `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree is the forest of root nodes of one owner.
type Tree []*TreeNode

// buildTree links nodes to their parents. Nodes whose parent is not in
// nodes are treated as roots.
func buildTree(nodes []*metadata.Node) Tree {
	byID := make(map[uuid.UUID]*TreeNode, len(nodes))
	for _, n := range nodes {
		name := n.Name
		if n.Extension != "" {
			name += "." + n.Extension
		}
		byID[n.ID] = &TreeNode{
			ID:           n.ID,
			Name:         name,
			Kind:         n.Kind,
			FileType:     n.FileType,
			Size:         n.Size,
			LastModified: n.LastModified,
		}
	}

	var roots Tree
	for _, n := range nodes {
		tn := byID[n.ID]
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Children = append(parent.Children, tn)
				continue
			}
		}
		roots = append(roots, tn)
	}

	sortTree(roots)
	return roots
}

func sortTree(nodes []*TreeNode) {
	slices.SortFunc(nodes, func(a, b *TreeNode) int {
		return strings.Compare(a.Name, b.Name)
	})
	for _, n := range nodes {
		sortTree(n.Children)
	}
}

// Headers implements output.TableRenderer.
func (t Tree) Headers() []string {
	return []string{"Name", "Kind", "Size", "Modified"}
}

// Rows implements output.TableRenderer.
func (t Tree) Rows() [][]string {
	var rows [][]string
	var walk func(nodes []*TreeNode, depth int)
	walk = func(nodes []*TreeNode, depth int) {
		for _, n := range nodes {
			name := strings.Repeat("  ", depth) + n.Name
			if n.Kind == metadata.KindFolder {
				name += "/"
			}
			rows = append(rows, []string{
				name,
				string(n.Kind),
				bytesize.ByteSize(n.Size).String(),
				timeutil.FormatLocal(n.LastModified),
			})
			walk(n.Children, depth+1)
		}
	}
	walk(t, 0)
	return rows
}

func runTree(cmd *cobra.Command, args []string) error {
	printer, err := cmdutil.Printer()
	if err != nil {
		return err
	}

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}
	if err := cmdutil.InitLogger(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	backends, err := cmdutil.OpenBackends(ctx, cfg, config.MetricsResult{})
	if err != nil {
		return err
	}
	defer func() { _ = backends.Close() }()

	acc, err := backends.AccountByEmail(ctx, treeEmail)
	if err != nil {
		return err
	}

	nodes, err := backends.Store.ListNodes(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}
	if len(nodes) == 0 && printer.Format() == output.FormatTable {
		printer.Printf("%s has no files\n", acc.Email)
		return nil
	}
	return printer.Print(buildTree(nodes))
}
