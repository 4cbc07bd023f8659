package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"lotterypool/domain/entities"

	"github.com/gorilla/mux"
)

// CallerHeader carries the address of the account making the request
const CallerHeader = "X-Caller-Address"

// LotteryOperations is the application surface exposed over HTTP
type LotteryOperations interface {
	CreatePool(ctx context.Context, administrator entities.Address) (*entities.LotteryPool, error)
	GetPool(ctx context.Context, poolID int64) (*entities.LotteryPool, error)
	Enter(ctx context.Context, poolID int64, caller entities.Address, stake entities.Amount) (*entities.LotteryEntry, error)
	GetPlayers(ctx context.Context, poolID int64) ([]entities.Address, error)
	PickWinner(ctx context.Context, poolID int64, caller entities.Address) (*entities.DrawResult, error)
	OpenAccount(ctx context.Context, address entities.Address) (*entities.Account, error)
	GetAccount(ctx context.Context, address entities.Address) (*entities.Account, error)
	SetAcceptsPayments(ctx context.Context, address entities.Address, accepts bool) (*entities.Account, error)
}

type enterRequest struct {
	Stake string `json:"stake"`
}

type openAccountRequest struct {
	Address string `json:"address"`
}

type acceptsPaymentsRequest struct {
	AcceptsPayments *bool `json:"accepts_payments"`
}

// Handlers serves the lottery HTTP API
type Handlers struct {
	ops LotteryOperations
}

// NewHandlers creates the HTTP handlers
func NewHandlers(ops LotteryOperations) *Handlers {
	return &Handlers{ops: ops}
}

func (h *Handlers) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	pool, err := h.ops.CreatePool(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPoolResponse(pool))
}

func (h *Handlers) handleGetPool(w http.ResponseWriter, r *http.Request) {
	poolID, ok := poolIDFromPath(w, r)
	if !ok {
		return
	}

	pool, err := h.ops.GetPool(r.Context(), poolID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPoolResponse(pool))
}

func (h *Handlers) handleEnter(w http.ResponseWriter, r *http.Request) {
	poolID, ok := poolIDFromPath(w, r)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req enterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stake, err := entities.ParseAmount(req.Stake)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entry, err := h.ops.Enter(r.Context(), poolID, caller, stake)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entryResponse{
		PoolID:      entry.PoolID,
		Participant: entry.Participant,
		Stake:       entry.Stake.String(),
		Position:    entry.Position,
	})
}

func (h *Handlers) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	poolID, ok := poolIDFromPath(w, r)
	if !ok {
		return
	}

	players, err := h.ops.GetPlayers(r.Context(), poolID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if players == nil {
		players = []entities.Address{}
	}
	writeJSON(w, http.StatusOK, playersResponse{PoolID: poolID, Players: players})
}

func (h *Handlers) handlePickWinner(w http.ResponseWriter, r *http.Request) {
	poolID, ok := poolIDFromPath(w, r)
	if !ok {
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	result, err := h.ops.PickWinner(r.Context(), poolID, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drawResponse{
		PoolID:       result.PoolID,
		PoolAddress:  result.PoolAddress,
		Winner:       result.Winner,
		Amount:       result.Amount.String(),
		Players:      result.Participants,
		LedgerHeight: result.LedgerHeight,
		DrawnAt:      result.DrawnAt,
	})
}

func (h *Handlers) handleOpenAccount(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	address, err := entities.ParseAddress(req.Address)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.ops.OpenAccount(r.Context(), address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handlers) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	address, err := entities.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.ops.GetAccount(r.Context(), address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handlers) handleSetAcceptsPayments(w http.ResponseWriter, r *http.Request) {
	address, err := entities.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	// Only the owner changes its own payment policy
	if caller != address {
		writeDomainError(w, fmt.Errorf("%w: %s cannot change %s", entities.ErrNotAuthorized, caller, address))
		return
	}

	var req acceptsPaymentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AcceptsPayments == nil {
		writeError(w, http.StatusBadRequest, "invalid_input", errors.New("accepts_payments is required"))
		return
	}

	account, err := h.ops.SetAcceptsPayments(r.Context(), address, *req.AcceptsPayments)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requireCaller(w http.ResponseWriter, r *http.Request) (entities.Address, bool) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing_caller", fmt.Errorf("%s header is required", CallerHeader))
		return "", false
	}
	caller, err := entities.ParseAddress(raw)
	if err != nil {
		writeDomainError(w, err)
		return "", false
	}
	return caller, true
}

func poolIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", fmt.Errorf("invalid pool id %q", raw))
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}
