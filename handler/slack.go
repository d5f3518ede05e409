package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// SlackEvents answers the Slack events API: URL verification and
// app mentions asking who the current curator is.
type SlackEvents struct {
	handler       *Handler
	slackClient   *slack.Client
	signingSecret string
}

func NewSlackEvents(h *Handler, slackClient *slack.Client, signingSecret string) *SlackEvents {
	return &SlackEvents{handler: h, slackClient: slackClient, signingSecret: signingSecret}
}

func (s *SlackEvents) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Read body.
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		log.Printf("Read body: %v.", err)
		return
	}

	// Validating a request.
	if err := validateRequest(s.signingSecret, r.Header, bodyBytes); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		log.Printf("Validate request: %v.", err)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(bodyBytes, slackevents.OptionNoVerifyToken())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Printf("Parse event: %v.", err)
		return
	}

	switch eventsAPIEvent.Type {
	case slackevents.URLVerification:
		var cr slackevents.ChallengeResponse
		if err := json.Unmarshal(bodyBytes, &cr); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			log.Printf("Unmarshal challenge response: %v.", err)
			return
		}

		w.Header().Set("Content-type", "text/plain")
		w.Write([]byte(cr.Challenge))
	case slackevents.CallbackEvent:
		switch e := eventsAPIEvent.InnerEvent.Data.(type) {
		case *slackevents.AppMentionEvent:
			st, err := s.handler.scheduler.Status(ctx, 1)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				log.Printf("Get rotation status: %v.", err)
				return
			}

			text := "Nobody is on curator duty right now."
			if st.Current != nil {
				text = fmt.Sprintf(
					"%s is the curator until %s.",
					st.Current.MemberName,
					st.Current.EndOn.Format(time.DateOnly),
				)
			}

			if _, _, err := s.slackClient.PostMessageContext(ctx, e.Channel, slack.MsgOptionText(text, false)); err != nil {
				log.Printf("Post message: %v.", err)
			}
		}
	}
}

func validateRequest(signingSecret string, header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, signingSecret)
	if err != nil {
		return fmt.Errorf("new secret verifier: %w", err)
	}
	if _, err := sv.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := sv.Ensure(); err != nil {
		return fmt.Errorf("ensure secret: %w", err)
	}

	return nil
}
