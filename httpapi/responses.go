package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lotterypool/domain/entities"

	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type poolResponse struct {
	ID            int64            `json:"id"`
	Address       entities.Address `json:"address"`
	Administrator entities.Address `json:"administrator"`
	PooledFunds   string           `json:"pooled_funds"`
	PlayerCount   int              `json:"player_count"`
	DrawCount     int64            `json:"draw_count"`
	CreatedAt     time.Time        `json:"created_at"`
}

type entryResponse struct {
	PoolID      int64            `json:"pool_id"`
	Participant entities.Address `json:"participant"`
	Stake       string           `json:"stake"`
	Position    int              `json:"position"`
}

type playersResponse struct {
	PoolID  int64              `json:"pool_id"`
	Players []entities.Address `json:"players"`
}

type drawResponse struct {
	PoolID       int64              `json:"pool_id"`
	PoolAddress  entities.Address   `json:"pool_address"`
	Winner       entities.Address   `json:"winner"`
	Amount       string             `json:"amount"`
	Players      []entities.Address `json:"players"`
	LedgerHeight int64              `json:"ledger_height"`
	DrawnAt      time.Time          `json:"drawn_at"`
}

type accountResponse struct {
	Address         entities.Address `json:"address"`
	Balance         string           `json:"balance"`
	AcceptsPayments bool             `json:"accepts_payments"`
}

func toPoolResponse(p *entities.LotteryPool) poolResponse {
	return poolResponse{
		ID:            p.ID,
		Address:       p.Address,
		Administrator: p.Administrator,
		PooledFunds:   p.PooledFunds.String(),
		PlayerCount:   p.PlayerCount,
		DrawCount:     p.DrawCount,
		CreatedAt:     p.CreatedAt,
	}
}

func toAccountResponse(a *entities.Account) accountResponse {
	return accountResponse{
		Address:         a.Address,
		Balance:         a.Balance.String(),
		AcceptsPayments: a.AcceptsPayments,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

// writeDomainError maps a domain error to its HTTP status
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		writeError(w, status, code, errors.New("internal error"))
		return
	}
	writeError(w, status, code, err)
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, entities.ErrInvalidAddress), errors.Is(err, entities.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, entities.ErrInsufficientStake):
		return http.StatusUnprocessableEntity, "insufficient_stake"
	case errors.Is(err, entities.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, entities.ErrNotAuthorized):
		return http.StatusForbidden, "not_authorized"
	case errors.Is(err, entities.ErrPoolNotFound), errors.Is(err, entities.ErrAccountNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, entities.ErrNoParticipants):
		return http.StatusConflict, "no_participants"
	case errors.Is(err, entities.ErrTransferFailed):
		return http.StatusConflict, "transfer_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
