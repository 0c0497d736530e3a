package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/pipeline"
	"github.com/funvibe/objectify/pkg/typerep"
)

// Client calls a remote Resolver service.
type Client struct {
	conn   grpc.ClientConnInterface
	schema *schema
}

func NewClient(conn grpc.ClientConnInterface) (*Client, error) {
	sc, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, schema: sc}, nil
}

// Resolve asks the server to resolve t.
func (c *Client) Resolve(ctx context.Context, t config.Target) (pipeline.Result, error) {
	req := c.schema.requestFromTarget(t)
	resp := c.schema.newResponse()
	if err := c.conn.Invoke(ctx, resolveMethod, req, resp); err != nil {
		return pipeline.Result{}, err
	}
	tree, err := typerep.Unmarshal([]byte(getString(resp, "tree_json")))
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.Result{
		Name:      getString(resp, "name"),
		RequestID: getString(resp, "request_id"),
		Source:    t.Source,
		TypeName:  getString(resp, "type_name"),
		Tree:      typerep.Tree{Type: tree},
	}, nil
}
