package server

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote SimulatorService.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// SimulateRaw sends a prebuilt Struct.
func (c *Client) SimulateRaw(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, simulateMethod, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Simulate sends req and decodes the response.
func (c *Client) Simulate(ctx context.Context, req Request) (Response, error) {
	in, err := toStruct(req)
	if err != nil {
		return Response{}, err
	}
	out, err := c.SimulateRaw(ctx, in)
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := fromStruct(out, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
