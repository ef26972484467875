// Package server exposes the simulator over gRPC.
//
// The service has no generated stubs: requests and responses travel as
// google.protobuf.Struct and are mapped onto the JSON shapes below.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/havensim/internal/deck"
)

const (
	ServiceName    = "havensim.v1.SimulatorService"
	simulateMethod = "/" + ServiceName + "/Simulate"
)

// Request is the body of a Simulate call. Exactly one of Deck and Builtin
// must be set. Seed is a decimal string so all 64 bits survive the trip
// through a protobuf double.
type Request struct {
	Deck       []deck.Group `json:"deck,omitempty"`
	Builtin    string       `json:"builtin,omitempty"`
	Iterations int          `json:"iterations,omitempty"`
	Seed       uint64       `json:"seed,omitempty,string"`
	Engine     string       `json:"engine,omitempty"`
	Parallel   bool         `json:"parallel,omitempty"`
}

// ScenarioResult carries the tally of one (game, kind) pair. Counts and
// Probability are indexed like Response.Cards.
type ScenarioResult struct {
	Game        string    `json:"game"`
	Kind        string    `json:"kind"`
	Attacks     int       `json:"attacks"`
	Reshuffles  int       `json:"reshuffles"`
	MeanDraws   float64   `json:"mean_draws"`
	MeanValue   float64   `json:"mean_value"`
	Counts      []int     `json:"counts"`
	Probability []float64 `json:"probability"`
	Positive    float64   `json:"positive"`
	NonNegative float64   `json:"non_negative"`
	Negative    float64   `json:"negative"`
	Miss        float64   `json:"miss"`
}

// Response is the body returned by Simulate.
type Response struct {
	RunID      string           `json:"run_id,omitempty"`
	Seed       uint64           `json:"seed,string"`
	Engine     string           `json:"engine"`
	Iterations int              `json:"iterations"`
	Attacks    int              `json:"attacks"`
	ElapsedMS  int64            `json:"elapsed_ms"`
	Cards      []deck.Card      `json:"cards"`
	Scenarios  []ScenarioResult `json:"scenarios"`
}

// CardIndex returns the position of the first card printing as label, or -1.
func (r Response) CardIndex(label string) int {
	for i, c := range r.Cards {
		if c.String() == label {
			return i
		}
	}
	return -1
}

// SimulatorServer is implemented by Service.
type SimulatorServer interface {
	Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Simulate", Handler: simulateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "havensim/v1/simulator.proto",
}

// RegisterSimulatorServer registers srv on s.
func RegisterSimulatorServer(s grpc.ServiceRegistrar, srv SimulatorServer) {
	s.RegisterService(&serviceDesc, srv)
}

func simulateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SimulatorServer).Simulate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: simulateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SimulatorServer).Simulate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// toStruct converts a JSON-tagged value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return out, nil
}

// fromStruct decodes s into the JSON-tagged value v.
func fromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
