package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rshade/tripcarbon/internal/metrics"
	"github.com/rshade/tripcarbon/internal/store"
	"github.com/rshade/tripcarbon/internal/wizard"
)

// sessionResponse is the body returned by every session endpoint.
type sessionResponse struct {
	wizard.State
	StepName       string     `json:"stepName"`
	MinimumApplied bool       `json:"minimumApplied"`
	Formatted      *Formatted `json:"formatted,omitempty"`
}

func (s *Server) sessionView(sess *wizard.Session) sessionResponse {
	st := sess.State()
	resp := sessionResponse{
		State:          st,
		StepName:       st.CurrentStep.String(),
		MinimumApplied: sess.MinimumApplied(),
	}
	if st.Calculation != nil && st.Transport != nil {
		f := formatCalculation(st.Transport.DistanceKm, *st.Calculation)
		resp.Formatted = &f
	}
	return resp
}

func (s *Server) sessionOptions() []wizard.Option {
	return []wizard.Option{wizard.WithClock(s.now), wizard.WithPixKey(s.pixKey)}
}

// loadSession rehydrates a session. Sessions left on the success page past
// the reset duration are restarted and saved.
func (s *Server) loadSession(ctx context.Context, id string) (*wizard.Session, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := wizard.Restore(state, s.calc, s.sessionOptions()...)
	if sess.Expired(s.now(), s.successReset) {
		sess.Restart()
		if err := s.store.Save(ctx, sess.State()); err != nil {
			return nil, err
		}
		metrics.RecordTransition(sess.Step().String())
		s.logger.Info().Str("session_id", id).Msg("session restarted after success")
	}
	return sess, nil
}

func (s *Server) sessionLogger(r *http.Request, id string) zerolog.Logger {
	return s.logger.With().
		Str("trace_id", TraceIDFromContext(r.Context())).
		Str("session_id", id).
		Logger()
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := wizard.NewSession(s.calc, s.sessionOptions()...)
	if err := s.store.Save(r.Context(), sess.State()); err != nil {
		log := s.sessionLogger(r, sess.ID())
		log.Error().Err(err).Msg("failed to save new session")
		writeDomainError(w, err, nil)
		return
	}
	metrics.RecordTransition(sess.Step().String())
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, s.sessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	defer s.lockSession(id)()

	sess, err := s.loadSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	unlock := s.lockSession(id)
	err := s.store.Delete(r.Context(), id)
	unlock()
	if err != nil {
		writeDomainError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionOperation mutates a loaded session from the request.
type sessionOperation func(r *http.Request, sess *wizard.Session) error

// sessionOp loads the session, applies op, saves the result even when op
// fails (a failed Calculate may move the session back), and responds.
func (s *Server) sessionOp(op sessionOperation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		defer s.lockSession(id)()
		log := s.sessionLogger(r, id)

		sess, err := s.loadSession(r.Context(), id)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
				log.Error().Err(err).Msg("failed to load session")
			}
			writeDomainError(w, err, nil)
			return
		}

		before := sess.State()
		opErr := op(r, sess)
		after := sess.State()

		if err := s.store.Save(r.Context(), after); err != nil {
			log.Error().Err(err).Msg("failed to save session")
			writeDomainError(w, err, nil)
			return
		}
		if after.CurrentStep != before.CurrentStep {
			metrics.RecordTransition(after.CurrentStep.String())
			log.Debug().
				Str("from", before.CurrentStep.String()).
				Str("to", after.CurrentStep.String()).
				Msg("wizard step changed")
		}
		if opErr != nil {
			log.Debug().Err(opErr).Msg("wizard operation rejected")
			step := after.CurrentStep
			writeDomainError(w, opErr, &step)
			return
		}
		if after.Calculation != nil && (before.Calculation == nil || *before.Calculation != *after.Calculation) {
			metrics.RecordCalculation(string(after.Transport.Vehicle), string(after.Transport.Fuel),
				after.Calculation.TotalEmission, sess.MinimumApplied())
		}
		writeJSON(w, http.StatusOK, s.sessionView(sess))
	}
}

type loginRequest struct {
	CPF   string `json:"cpf"`
	Phone string `json:"phone"`
}

func opLogin(r *http.Request, sess *wizard.Session) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	return sess.Login(req.CPF, req.Phone)
}

func opOrigin(r *http.Request, sess *wizard.Session) error {
	var form wizard.OriginForm
	if err := decodeJSON(r, &form); err != nil {
		return err
	}
	return sess.SetOrigin(form)
}

func opTransport(r *http.Request, sess *wizard.Session) error {
	var form wizard.TransportForm
	if err := decodeJSON(r, &form); err != nil {
		return err
	}
	return sess.SetTransport(form)
}

// distanceRequest sets a manual distance, or switches back to the automatic
// one when Automatic is true.
type distanceRequest struct {
	DistanceKm *float64 `json:"distance"`
	Automatic  bool     `json:"isAutomaticCalc"`
}

func opDistance(r *http.Request, sess *wizard.Session) error {
	var req distanceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Automatic {
		return sess.EnableAutomaticDistance()
	}
	if req.DistanceKm == nil {
		return &wizard.ValidationError{Field: "distance", Message: "Distância é obrigatória"}
	}
	return sess.SetManualDistance(*req.DistanceKm)
}

func opCalculate(_ *http.Request, sess *wizard.Session) error {
	_, err := sess.Calculate()
	return err
}

func opResult(_ *http.Request, sess *wizard.Session) error {
	return sess.ConfirmResult()
}

func opPayment(_ *http.Request, sess *wizard.Session) error {
	_, err := sess.StartPayment()
	return err
}

func opConfirmPayment(_ *http.Request, sess *wizard.Session) error {
	return sess.ConfirmPayment()
}

func opBack(_ *http.Request, sess *wizard.Session) error {
	return sess.Back()
}

func opRestart(_ *http.Request, sess *wizard.Session) error {
	sess.Restart()
	return nil
}
