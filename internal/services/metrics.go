package services

import "cylinder-backend/internal/metrics"

func observeLedger(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.LedgerTransactionsTotal.WithLabelValues(op, result).Inc()
}
