package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts workflow activity for the /metrics endpoint.
type Metrics struct {
	PlansDrafted    prometheus.Counter
	PlansApproved   prometheus.Counter
	PlansRejected   prometheus.Counter
	PlansCompleted  prometheus.Counter
	PlansAborted    prometheus.Counter
	StepsCompleted  prometheus.Counter
	StepsFailed     prometheus.Counter
	BlockersRaised  prometheus.Counter
	ChangesApplied  prometheus.Counter
	QuestionsRaised prometheus.Counter
}

// NewMetrics registers the workflow counters with the registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PlansDrafted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "plans_drafted_total",
			Help: "Plans drafted for approval.",
		}),
		PlansApproved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "plans_approved_total",
			Help: "Plans approved into execution.",
		}),
		PlansRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "plans_rejected_total",
			Help: "Drafted plans rejected and discarded.",
		}),
		PlansCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "plans_completed_total",
			Help: "Plans finalized after all steps completed.",
		}),
		PlansAborted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "plans_aborted_total",
			Help: "Plans aborted before completion.",
		}),
		StepsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "steps_completed_total",
			Help: "Pipeline steps completed.",
		}),
		StepsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "steps_failed_total",
			Help: "Pipeline steps that failed.",
		}),
		BlockersRaised: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "blockers_raised_total",
			Help: "Steps suspended on a blocker decision.",
		}),
		ChangesApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "plan_changes_applied_total",
			Help: "Mid-execution plan changes applied.",
		}),
		QuestionsRaised: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "maestro", Name: "questions_raised_total",
			Help: "Clarifying questions raised during planning.",
		}),
	}
}
