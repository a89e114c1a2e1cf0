package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/jwalitptl/clinic-api/internal/config"
)

// SMSSender delivers text messages to E.164 numbers.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
	Enabled() bool
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type twilioSender struct {
	from string
	api  messageCreator
}

func NewSMSSender(cfg config.TwilioConfig) SMSSender {
	if !cfg.Enabled() {
		return disabledSender{}
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &twilioSender{from: cfg.FromNumber, api: client.Api}
}

func (s *twilioSender) Enabled() bool { return true }

func (s *twilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send sms to %s: %w", to, err)
	}
	if resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Str("to", to).Msg("sms sent")
	}
	return nil
}

type disabledSender struct{}

func (disabledSender) Enabled() bool { return false }

func (disabledSender) Send(context.Context, string, string) error {
	return fmt.Errorf("sms is not configured")
}
