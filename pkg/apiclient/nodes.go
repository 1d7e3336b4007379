package apiclient

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/marmos91/servr/pkg/metadata"
)

// Quota is the storage usage of the signed-in owner.
type Quota struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Available int64 `json:"available"`
}

// ProvisionContainer creates the owner's blob container and returns its
// name. Provisioning an existing container succeeds.
func (c *Client) ProvisionContainer(ctx context.Context) (string, error) {
	var resp struct {
		Container string `json:"container"`
	}
	if err := c.post(ctx, "/api/v1/container", nil, &resp); err != nil {
		return "", err
	}
	return resp.Container, nil
}

// ListNodes returns every node of the owner, oldest first. File nodes carry
// signed download URLs.
func (c *Client) ListNodes(ctx context.Context) ([]*metadata.Node, error) {
	var resp struct {
		Nodes []*metadata.Node `json:"nodes"`
	}
	if err := c.get(ctx, "/api/v1/nodes", &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// CreateFolder creates a folder under parentID, or at the root when
// parentID is nil.
func (c *Client) CreateFolder(ctx context.Context, name string, parentID *uuid.UUID) (*metadata.Node, error) {
	req := struct {
		Name     string `json:"name"`
		ParentID string `json:"parent_id,omitempty"`
	}{Name: name}
	if parentID != nil {
		req.ParentID = parentID.String()
	}

	var node metadata.Node
	if err := c.post(ctx, "/api/v1/folders", req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Upload stores content as filename under parentID. The server derives the
// node name and extension from filename.
func (c *Client) Upload(ctx context.Context, filename, contentType string, content io.Reader, parentID *uuid.UUID) (*metadata.Node, error) {
	fields := map[string]string{}
	if parentID != nil {
		fields["parent_id"] = parentID.String()
	}

	var node metadata.Node
	if err := c.upload(ctx, "/api/v1/files", fields, filename, contentType, content, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Rename changes the name of a node.
func (c *Client) Rename(ctx context.Context, id uuid.UUID, name string) error {
	req := struct {
		Name string `json:"name"`
	}{Name: name}
	return c.patch(ctx, "/api/v1/nodes/"+id.String(), req, nil)
}

// Delete removes a file or an empty folder and returns the removed node.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) (*metadata.Node, error) {
	var node metadata.Node
	if err := c.delete(ctx, "/api/v1/nodes/"+id.String(), &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Quota returns the storage usage of the owner.
func (c *Client) Quota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := c.get(ctx, "/api/v1/quota", &q); err != nil {
		return nil, err
	}
	return &q, nil
}
