package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoomsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rooms_created_total",
			Help: "Total online rooms created",
		},
	)
	RoomsRecycled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rooms_recycled_total",
			Help: "Total abandoned rooms recycled by a joining player",
		},
	)
	QuestionsAsked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "questions_asked_total",
			Help: "Total questions sent in online matches",
		},
	)
	Guesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guesses_total",
			Help: "Total direct guesses by outcome",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(RoomsCreated)
	prometheus.MustRegister(RoomsRecycled)
	prometheus.MustRegister(QuestionsAsked)
	prometheus.MustRegister(Guesses)
}
