package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/consol-protocol/consold/internal/core/application"
	"github.com/consol-protocol/consold/internal/core/domain"
)

// QueueHandler exposes the withdrawal engine over a JSON REST surface.
type QueueHandler struct {
	withdrawalSvc application.WithdrawalService
	processorSvc  application.ProcessorService
}

func NewQueueHandler(
	withdrawalSvc application.WithdrawalService,
	processorSvc application.ProcessorService,
) *QueueHandler {
	return &QueueHandler{
		withdrawalSvc: withdrawalSvc,
		processorSvc:  processorSvc,
	}
}

// Router returns the queue routes, meant to be mounted under /v1/queues.
func (h *QueueHandler) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.addQueue)
	r.Get("/{name}", h.getQueue)
	r.Post("/{name}/withdrawals", h.requestWithdrawal)
	r.Get("/{name}/withdrawals/{index}", h.getWithdrawal)
	r.Post("/{name}/withdrawals/{index}/cancel", h.cancelWithdrawal)
	r.Post("/{name}/process", h.process)
	r.Get("/{name}/blocked", h.isBlocked)
	r.Post("/{name}/gas-fee", h.setGasFee)
	r.Post("/{name}/minimum-amount", h.setMinimumAmount)
	r.Post("/{name}/native-gas/withdraw", h.withdrawNativeGas)

	return r
}

type addQueueRequest struct {
	Admin        string `json:"admin"`
	Name         string `json:"name"`
	StrategyType int    `json:"strategy_type"`
	GasFee       uint64 `json:"gas_fee"`
	MinAmount    uint64 `json:"minimum_withdrawal_amount"`
}

func (h *QueueHandler) addQueue(w http.ResponseWriter, r *http.Request) {
	req := &addQueueRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	if err := h.withdrawalSvc.AddQueue(
		r.Context(), req.Admin, req.Name, req.StrategyType,
		req.GasFee, req.MinAmount,
	); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *QueueHandler) getQueue(w http.ResponseWriter, r *http.Request) {
	ctx, name := r.Context(), chi.URLParam(r, "name")

	length, err := h.withdrawalSvc.WithdrawalQueueLength(ctx, name)
	if err != nil {
		writeError(w, err)
		return
	}
	gasFee, _ := h.withdrawalSvc.WithdrawalGasFee(ctx, name)
	minAmount, _ := h.withdrawalSvc.MinimumWithdrawalAmount(ctx, name)
	asset, _ := h.withdrawalSvc.Asset(ctx, name)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":                      name,
		"asset":                     asset,
		"withdrawal_queue_length":   length,
		"withdrawal_gas_fee":        gasFee,
		"minimum_withdrawal_amount": minAmount,
	})
}

type requestWithdrawalRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
	FeePaid uint64 `json:"fee_paid"`
}

func (h *QueueHandler) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	req := &requestWithdrawalRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	info, err := h.withdrawalSvc.RequestWithdrawal(
		r.Context(), chi.URLParam(r, "name"), req.Account,
		req.Amount, req.FeePaid,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *QueueHandler) getWithdrawal(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	info, err := h.withdrawalSvc.WithdrawalQueue(
		r.Context(), chi.URLParam(r, "name"), index,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type cancelWithdrawalRequest struct {
	Account string `json:"account"`
}

func (h *QueueHandler) cancelWithdrawal(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	req := &cancelWithdrawalRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	if err := h.withdrawalSvc.CancelWithdrawal(
		r.Context(), chi.URLParam(r, "name"), req.Account, index,
	); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type processRequest struct {
	Count  uint64 `json:"count"`
	Caller string `json:"caller"`
}

func (h *QueueHandler) process(w http.ResponseWriter, r *http.Request) {
	req := &processRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	if err := h.processorSvc.Process(
		r.Context(), chi.URLParam(r, "name"), req.Count, req.Caller,
	); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QueueHandler) isBlocked(w http.ResponseWriter, r *http.Request) {
	blocker, blocked := h.processorSvc.IsBlocked(chi.URLParam(r, "name"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"blocker": blocker,
		"blocked": blocked,
	})
}

type setGasFeeRequest struct {
	Admin string `json:"admin"`
	Fee   uint64 `json:"fee"`
}

func (h *QueueHandler) setGasFee(w http.ResponseWriter, r *http.Request) {
	req := &setGasFeeRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	if err := h.withdrawalSvc.SetWithdrawalGasFee(
		r.Context(), chi.URLParam(r, "name"), req.Admin, req.Fee,
	); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setMinimumAmountRequest struct {
	Admin  string `json:"admin"`
	Amount uint64 `json:"amount"`
}

func (h *QueueHandler) setMinimumAmount(w http.ResponseWriter, r *http.Request) {
	req := &setMinimumAmountRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	if err := h.withdrawalSvc.SetMinimumWithdrawalAmount(
		r.Context(), chi.URLParam(r, "name"), req.Admin, req.Amount,
	); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type withdrawNativeGasRequest struct {
	Admin     string `json:"admin"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

func (h *QueueHandler) withdrawNativeGas(w http.ResponseWriter, r *http.Request) {
	req := &withdrawNativeGasRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	if err := h.withdrawalSvc.WithdrawNativeGas(
		r.Context(), chi.URLParam(r, "name"), req.Admin,
		req.Recipient, req.Amount,
	); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIndex(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("error while writing http response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrQueueNotFound),
		errors.Is(err, domain.ErrLedgerOutOfBounds):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQueueAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, application.ErrQueueBlocked):
		return http.StatusLocked
	}

	switch err.(type) {
	case domain.UnauthorizedError,
		domain.CallerIsNotRequestAccountError:
		return http.StatusForbidden
	case domain.InsufficientGasFeeError,
		domain.WithdrawalRequestOutOfBoundsError,
		domain.InsufficientWithdrawalCapacityError,
		domain.FailedToWithdrawNativeGasError:
		return http.StatusUnprocessableEntity
	}

	switch err {
	case domain.ErrQueueInsufficientAmount,
		domain.ErrWithdrawalAlreadyInert,
		domain.ErrQueueInvalidName,
		domain.ErrQueueInvalidAsset,
		domain.ErrQueueInvalidStrategyType:
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}
