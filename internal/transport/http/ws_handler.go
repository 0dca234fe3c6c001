package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/identity"
	"cohort-portal-service/internal/session"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS streams the session state of one client. The client drives sign-in
// and sign-out over the socket and receives a "session" message for every
// state the controller settles on, starting with the loading state.
//
// An optional token query parameter (or the usual bearer header or cookie)
// signs the connection in before the first resolution.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = s.requestToken(r)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	provider := identity.NewProvider(s.verifier)
	controller := session.NewController(s.svc.Profiles, s.logger)
	defer controller.Close()

	var initialErr error
	if token != "" {
		_, initialErr = provider.SignIn(ctx, token)
	}

	updates, cancel := controller.Subscribe()
	defer cancel()
	controller.Attach(provider)
	controller.Start(ctx)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case st, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: st}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}
	pushError := func(err error) bool {
		_, body := statusFor(err)
		return push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: body.Error}})
	}

	if initialErr != nil {
		pushError(initialErr)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ok := true
		switch inbound.Type {
		case "signIn":
			var payload signInRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.IDToken == "" {
				ok = pushError(domain.NewValidationError(domain.FieldError{Field: "idToken", Message: "idToken is required"}))
			} else if _, err := provider.SignIn(ctx, payload.IDToken); err != nil {
				ok = pushError(err)
			}
		case "signOut":
			if err := provider.SignOut(ctx); err != nil {
				ok = pushError(err)
			}
		default:
			ok = push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
		if !ok {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
