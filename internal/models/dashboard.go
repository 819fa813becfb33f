package models

import "github.com/shopspring/decimal"

// DashboardSummary is the aggregate snapshot shown on the business dashboard.
type DashboardSummary struct {
	TotalCustomers            int             `json:"total_customers"`
	ActiveCustomers           int             `json:"active_customers"`
	TotalOutstandingBalance   decimal.Decimal `json:"total_outstanding_balance"`
	TotalCylindersOutstanding int             `json:"total_cylinders_outstanding"`
	SalesToday                int             `json:"sales_today"`
	SalesTodayAmount          decimal.Decimal `json:"sales_today_amount"`
	SalesMonthAmount          decimal.Decimal `json:"sales_month_amount"`
	PaymentsTodayAmount       decimal.Decimal `json:"payments_today_amount"`
	PendingSales              int             `json:"pending_sales"`
}
