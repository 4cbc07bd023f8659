package observability

// Metric namespace
const (
	MetricNamespace = "lotterypool"
)

// Metric subsystems
const (
	SubsystemPool   = "pool"
	SubsystemDraw   = "draw"
	SubsystemEvents = "events"
)

// Label keys
const (
	LabelPoolID    = "pool_id"
	LabelOperation = "operation"
	LabelReason    = "reason"
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
)

// Operations
const (
	OperationCreatePool         = "create_pool"
	OperationEnter              = "enter"
	OperationGetPlayers         = "get_players"
	OperationGetPool            = "get_pool"
	OperationPickWinner         = "pick_winner"
	OperationOpenAccount        = "open_account"
	OperationGetAccount         = "get_account"
	OperationSetAcceptsPayments = "set_accepts_payments"
)

// Rejection reasons
const (
	ReasonInsufficientStake = "insufficient_stake"
	ReasonNotAuthorized     = "not_authorized"
	ReasonNoParticipants    = "no_participants"
	ReasonTransferFailed    = "transfer_failed"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonNotFound          = "not_found"
	ReasonInvalidInput      = "invalid_input"
	ReasonInternal          = "internal"
)

// Draw outcomes
const (
	OutcomePaid = "paid"
)
