package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"pache/internal/core"
)

type createPacheRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	Name string `json:"name"`
}

type addExpenseRequest struct {
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	PaidByID       string          `json:"paidById"`
	ParticipantIDs []string        `json:"participantIds"`
}

type recordPaymentRequest struct {
	FromMemberID string          `json:"fromMemberId"`
	ToMemberID   string          `json:"toMemberId"`
	Amount       decimal.Decimal `json:"amount"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeBadRequest(w, "malformed JSON body")
		return false
	}
	return true
}

func (s *Server) handleListPaches(w http.ResponseWriter, r *http.Request) {
	paches, err := s.svc.ListPaches(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paches)
}

func (s *Server) handleCreatePache(w http.ResponseWriter, r *http.Request) {
	var req createPacheRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.svc.CreatePache(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPache(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPache(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePache(w http.ResponseWriter, r *http.Request) {
	var incoming core.Pache
	if !decodeJSON(w, r, &incoming) {
		return
	}
	incoming.ID = r.PathValue("id")

	p, err := s.svc.UpdatePache(r.Context(), incoming)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(p.ID)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePache(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeletePache(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")

	member, err := s.svc.AddMember(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(id)
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteMember(r.Context(), id, r.PathValue("memberId")); err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")

	expense, err := s.svc.AddExpense(r.Context(), id, req.Description, req.Amount, req.PaidByID, req.ParticipantIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(id)
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteExpense(r.Context(), id, r.PathValue("expenseId")); err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")

	payment, err := s.svc.RecordPayment(r.Context(), id, req.FromMemberID, req.ToMemberID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(id)
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeletePayment(r.Context(), id, r.PathValue("paymentId")); err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if cached, ok := s.balancesCache.Get(id); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	balances, err := s.svc.Balances(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.balancesCache.Set(id, balances)
	writeJSON(w, http.StatusOK, balances)
}
