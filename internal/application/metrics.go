package application

import (
	"expvar"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oksasatya/go-library-management/internal/domain/errs"
)

var (
	loanOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "library_loan_operations_total",
		Help: "Loan workflow operations by outcome.",
	}, []string{"operation", "outcome"})

	loanOperationsVar = expvar.NewMap("library_loan_operations")
)

func init() {
	prometheus.MustRegister(loanOperations)
}

// observeLoanOp counts one workflow call. The outcome is "ok" or the error kind.
func observeLoanOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errs.KindOf(err).String()
	}
	loanOperations.WithLabelValues(operation, outcome).Inc()
	loanOperationsVar.Add(operation+"."+outcome, 1)
}
