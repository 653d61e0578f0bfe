package background

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"twinfm/internal/cancel"
)

func (r *Runtime) runBuildTree(cmd Command) {
	root, err := buildTree(cmd.TreeRoot, cmd.MaxDepth, cmd.MaxEntries, cmd.CancelFlag)
	ev := Event{Kind: EvtTreeReady, JobID: cmd.JobID, Tree: root}
	if err != nil {
		ev.Err = toJobError(err)
	}
	r.emit(ev)
}

// buildTree walks up to maxDepth, capping the total number of nodes in the
// result at maxEntries. Unreadable directories are silently skipped,
// matching the find traversal's tolerance.
func buildTree(root string, maxDepth, maxEntries int, cf *cancel.Flag) (*TreeNode, error) {
	budget := maxEntries
	if budget <= 0 {
		budget = 1
	}
	node, _, err := buildTreeNode(root, filepath.Base(root), 0, maxDepth, &budget, cf)
	return node, err
}

func buildTreeNode(path, name string, depth, maxDepth int, budget *int, cf *cancel.Flag) (*TreeNode, bool, error) {
	if err := cf.Check(); err != nil {
		return nil, false, err
	}
	if *budget <= 0 {
		return nil, false, nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		return nil, false, nil // unreadable entries are silently skipped
	}

	node := &TreeNode{Path: path, Name: name, IsDir: info.IsDir()}
	*budget--

	if !info.IsDir() || info.Mode()&os.ModeSymlink != 0 || (maxDepth >= 0 && depth >= maxDepth) {
		return node, true, nil
	}

	children, err := os.ReadDir(path)
	if err != nil {
		return node, true, nil
	}
	sort.Slice(children, func(i, j int) bool {
		return strings.ToLower(children[i].Name()) < strings.ToLower(children[j].Name())
	})

	for _, c := range children {
		if err := cf.Check(); err != nil {
			return node, true, err
		}
		if *budget <= 0 {
			break
		}
		child, ok, err := buildTreeNode(filepath.Join(path, c.Name()), c.Name(), depth+1, maxDepth, budget, cf)
		if err != nil {
			return node, true, err
		}
		if ok {
			node.Children = append(node.Children, child)
		}
	}
	return node, true, nil
}
