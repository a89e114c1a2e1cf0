package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSendPasswordReset(t *testing.T) {
	d := &recordingDialer{}
	svc := &smtpService{from: "no-reply@clinic.local", dialer: d}

	require.NoError(t, svc.SendPasswordReset(context.Background(), "sara@example.com", "sara", "tok-123"))
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"sara@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Password reset"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tok-123")
}

func TestSendFailureIsWrapped(t *testing.T) {
	svc := &smtpService{from: "a@b.c", dialer: &recordingDialer{err: errors.New("connection refused")}}
	err := svc.SendCustom(context.Background(), "x@y.z", "s", "b")
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewServiceWithoutHost(t *testing.T) {
	svc := NewService(config.SMTPConfig{})
	_, ok := svc.(logService)
	assert.True(t, ok)
	assert.NoError(t, svc.SendReminder(context.Background(), "x@y.z", "x", "tomorrow"))
}
