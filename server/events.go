package server

import (
	"net/http"
	"strconv"

	"github.com/billbatista/eventfund/ledger"
	"github.com/billbatista/eventfund/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUsername(r.Context())

	refs, err := s.events.ListEvents(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.Index{Events: refs})
}

func (s *Server) activeEvents(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUsername(r.Context())

	refs, err := s.events.ActiveEvents(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.Index{Events: refs})
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUsername(r.Context())

	var in ledger.NewEventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	event, err := s.events.CreateEvent(r.Context(), username, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) openEvent(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUsername(r.Context())
	id, err := eventID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	event, err := s.events.OpenEvent(r.Context(), username, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// deleteEvent removes the record too unless ?keepRecord=true.
func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.GetUsername(r.Context())
	id, err := eventID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	keep, _ := strconv.ParseBool(r.URL.Query().Get("keepRecord"))

	ref, err := s.events.DeleteEvent(r.Context(), username, id, ledger.DeleteOptions{KeepRecord: keep})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) listFundraisers(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.reference(w, r)
	if !ok {
		return
	}

	event, err := s.events.GetEvent(r.Context(), ref.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.SearchFundraisers(event, r.URL.Query().Get("q")))
}

func (s *Server) addFundraiser(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.reference(w, r)
	if !ok {
		return
	}

	var in ledger.FundraiserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	event, err := s.events.AddFundraiser(r.Context(), ref.Name, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) addExpense(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.reference(w, r)
	if !ok {
		return
	}

	var in ledger.ExpenseInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	event, err := s.events.AddExpense(r.Context(), ref.Name, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.reference(w, r)
	if !ok {
		return
	}

	event, err := s.events.GetEvent(r.Context(), ref.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.reference(w, r)
	if !ok {
		return
	}

	stats, err := s.events.Statistics(r.Context(), ref.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// reference resolves {id} against the caller's own index, so users can only
// reach events they created.
func (s *Server) reference(w http.ResponseWriter, r *http.Request) (ledger.Reference, bool) {
	username, _ := middleware.GetUsername(r.Context())
	id, err := eventID(r)
	if err != nil {
		writeError(w, r, err)
		return ledger.Reference{}, false
	}

	ref, err := s.events.Lookup(r.Context(), username, id)
	if err != nil {
		writeError(w, r, err)
		return ledger.Reference{}, false
	}
	return ref, true
}

func eventID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}
	return id, nil
}
