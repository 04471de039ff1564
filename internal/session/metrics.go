package session

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("session")

var (
	movesCounter    metric.Int64Counter
	rejectedCounter metric.Int64Counter
	finishedCounter metric.Int64Counter
	thinkDuration   metric.Float64Histogram
)

func init() {
	var err error
	if movesCounter, err = meter.Int64Counter("tictactoe.moves",
		metric.WithDescription("Accepted moves by player and difficulty")); err != nil {
		otel.Handle(err)
	}
	if rejectedCounter, err = meter.Int64Counter("tictactoe.moves.rejected",
		metric.WithDescription("Human moves refused by the board")); err != nil {
		otel.Handle(err)
	}
	if finishedCounter, err = meter.Int64Counter("tictactoe.games.finished",
		metric.WithDescription("Games that reached a win or a draw")); err != nil {
		otel.Handle(err)
	}
	if thinkDuration, err = meter.Float64Histogram("tictactoe.computer.think_duration",
		metric.WithDescription("Time spent selecting the computer's move"),
		metric.WithUnit("ms")); err != nil {
		otel.Handle(err)
	}
}
