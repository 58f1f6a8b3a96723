package constants

const (
	TradeMetals      = "trade_metals"
	ViewOwnPayments  = "view_own_payments"
	UpdateRates      = "update_rates"
	SettlePayments   = "settle_payments"
	ViewAllPayments  = "view_all_payments"
	ViewDashboard    = "view_dashboard"
	ViewLedgerEvents = "view_ledger_events"
	ManageHealth     = "manage_health"
)
