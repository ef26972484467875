package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/havensim/internal/attack"
	"github.com/xtding233/havensim/internal/deck"
	"github.com/xtding233/havensim/internal/deckfile"
	"github.com/xtding233/havensim/internal/history"
)

// MaxIterations bounds the work a single call may request.
const MaxIterations = 10_000_000

// Service implements SimulatorServer on top of attack.Run.
type Service struct {
	iterations int
	engine     deck.Strategy
	store      *history.Store // optional
	log        *zap.Logger
}

// NewService returns a service using iterations and engine when a request
// leaves them unset. A nil store disables history.
func NewService(iterations int, engine deck.Strategy, store *history.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{iterations: iterations, engine: engine, store: store, log: log}
}

// Simulate runs every scenario over the requested deck.
func (s *Service) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	groups, label, err := requestDeck(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var req Request
	if err := fromStruct(withoutDeck(in), &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}

	iterations := req.Iterations
	if iterations == 0 {
		iterations = s.iterations
	}
	if iterations < 1 || iterations > MaxIterations {
		return nil, status.Errorf(codes.InvalidArgument, "iterations must be in [1, %d]", MaxIterations)
	}
	engine := s.engine
	if req.Engine != "" {
		if engine, err = deck.ParseStrategy(req.Engine); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	res, err := attack.Run(ctx, attack.Params{
		Groups:     groups,
		Iterations: iterations,
		Seed:       req.Seed,
		Strategy:   engine,
		Parallel:   req.Parallel,
		Logger:     s.log,
	})
	if err != nil {
		return nil, runError(err)
	}
	s.log.Info("simulate",
		zap.String("deck", label),
		zap.Int("attacks", res.Attacks()),
		zap.Uint64("seed", res.Seed),
		zap.Duration("elapsed", res.Elapsed))

	resp := buildResponse(res)
	if s.store != nil {
		id, err := s.store.Save(ctx, label, res)
		if err != nil {
			s.log.Warn("save run", zap.Error(err))
		} else {
			resp.RunID = id
		}
	}
	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// requestDeck resolves the deck of a request and a label for logs and history.
func requestDeck(in *structpb.Struct) ([]deck.Group, string, error) {
	deckField, hasDeck := in.GetFields()["deck"]
	name := strings.TrimSpace(in.GetFields()["builtin"].GetStringValue())
	switch {
	case hasDeck && name != "":
		return nil, "", errors.New("set either deck or builtin, not both")
	case hasDeck:
		b, err := protojson.Marshal(deckField)
		if err != nil {
			return nil, "", err
		}
		groups, err := deckfile.Decode(b, deckfile.FormatJSON)
		return groups, "grpc:inline", err
	case name != "":
		groups, err := deckfile.Builtin(name)
		return groups, "builtin:" + name, err
	default:
		return nil, "", errors.New("deck or builtin is required")
	}
}

func withoutDeck(in *structpb.Struct) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(in.GetFields()))}
	for k, v := range in.GetFields() {
		if k != "deck" {
			out.Fields[k] = v
		}
	}
	return out
}

func runError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, attack.ErrNoIterations),
		errors.Is(err, deck.ErrEmptyDeck),
		errors.Is(err, deck.ErrNoSettlingCard),
		errors.Is(err, deck.ErrUnknownStrategy):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, fmt.Sprintf("simulate: %v", err))
	}
}

func buildResponse(res attack.Result) Response {
	resp := Response{
		Seed:       res.Seed,
		Engine:     string(res.Strategy),
		Iterations: res.Iterations,
		Attacks:    res.Attacks(),
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Cards:      res.Cards,
		Scenarios:  make([]ScenarioResult, 0, len(res.Tallies)),
	}
	for _, t := range res.Tallies {
		sr := ScenarioResult{
			Game:        t.Scenario.Game.String(),
			Kind:        t.Scenario.Kind.String(),
			Attacks:     t.Attacks,
			Reshuffles:  t.Reshuffles,
			MeanDraws:   t.Draws.Mean,
			MeanValue:   t.MeanValue(),
			Counts:      make([]int, len(res.Cards)),
			Probability: make([]float64, len(res.Cards)),
			Positive:    t.Fraction(t.Positive()),
			NonNegative: t.Fraction(t.NonNegative()),
			Negative:    t.Fraction(t.Negative()),
			Miss:        t.Fraction(t.Misses()),
		}
		for i, c := range res.Cards {
			sr.Counts[i] = t.Count(c)
			sr.Probability[i] = t.Probability(c)
		}
		resp.Scenarios = append(resp.Scenarios, sr)
	}
	return resp
}
