package commands

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/metadata"
)

func treeFolder(name string, parent *uuid.UUID, size int64) *metadata.Node {
	return &metadata.Node{ID: uuid.New(), ParentID: parent, Name: name, Kind: metadata.KindFolder, FileType: metadata.FileTypeFolder, Size: size}
}

func treeFile(name, ext string, parent *uuid.UUID, size int64) *metadata.Node {
	return &metadata.Node{ID: uuid.New(), ParentID: parent, Name: name, Extension: ext, Kind: metadata.KindFile, FileType: metadata.FileTypeOther, Size: size}
}

func TestBuildTree(t *testing.T) {
	docs := treeFolder("docs", nil, 3072)
	photos := treeFolder("photos", &docs.ID, 2048)
	report := treeFile("report", "pdf", &docs.ID, 1024)
	cat := treeFile("cat", "png", &photos.ID, 2048)
	readme := treeFile("README", "", nil, 10)
	orphan := treeFile("lost", "txt", ptr(uuid.New()), 1)

	tree := buildTree([]*metadata.Node{cat, report, photos, docs, readme, orphan})

	require.Len(t, tree, 3)
	assert.Equal(t, "README", tree[0].Name)
	assert.Equal(t, "docs", tree[1].Name)
	assert.Equal(t, "lost.txt", tree[2].Name)

	require.Len(t, tree[1].Children, 2)
	assert.Equal(t, "photos", tree[1].Children[0].Name)
	assert.Equal(t, "report.pdf", tree[1].Children[1].Name)
	require.Len(t, tree[1].Children[0].Children, 1)
	assert.Equal(t, "cat.png", tree[1].Children[0].Children[0].Name)
}

func TestTreeRows(t *testing.T) {
	docs := treeFolder("docs", nil, 2048)
	docs.LastModified = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	file := treeFile("a", "txt", &docs.ID, 2048)

	tree := buildTree([]*metadata.Node{docs, file})
	rows := tree.Rows()

	require.Len(t, rows, 2)
	assert.Equal(t, "docs/", rows[0][0])
	assert.Equal(t, "folder", rows[0][1])
	assert.Equal(t, "2KiB", rows[0][2])
	assert.NotEqual(t, "-", rows[0][3])
	assert.Equal(t, "  a.txt", rows[1][0])
	assert.Equal(t, "-", rows[1][3])
	assert.Equal(t, []string{"Name", "Kind", "Size", "Modified"}, tree.Headers())
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
