package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-auth-nosql/internal/config"
	"github.com/go-auth-nosql/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gomail "github.com/xhit/go-simple-mail/v2"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func fastDeliverer(s Sender, retries int) *Deliverer {
	d := NewDeliverer(s, time.Second, retries)
	d.backoff = time.Millisecond
	return d
}

func TestDeliver_RetriesThenSucceeds(t *testing.T) {
	s := new(mockSender)
	msg := Message{To: "a@b.test", Subject: "hi"}
	s.On("Send", mock.Anything, msg).Return(errors.New("421 try later")).Once()
	s.On("Send", mock.Anything, msg).Return(nil).Once()

	err := fastDeliverer(s, 2).Deliver(context.Background(), msg)

	require.NoError(t, err)
	s.AssertNumberOfCalls(t, "Send", 2)
}

func TestDeliver_GivesUpAsTransportFailure(t *testing.T) {
	s := new(mockSender)
	s.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	err := fastDeliverer(s, 2).Deliver(context.Background(), Message{To: "a@b.test"})

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorContains(t, err, "connection refused")
	s.AssertNumberOfCalls(t, "Send", 3)
}

type blockingSender struct{}

func (blockingSender) Send(ctx context.Context, _ Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDeliver_BoundsEachAttempt(t *testing.T) {
	d := NewDeliverer(blockingSender{}, 20*time.Millisecond, 0)

	start := time.Now()
	err := d.Deliver(context.Background(), Message{To: "a@b.test"})

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDeliver_StopsWhenCallerCancels(t *testing.T) {
	s := new(mockSender)
	ctx, cancel := context.WithCancel(context.Background())
	s.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(errors.New("boom"))

	err := fastDeliverer(s, 5).Deliver(ctx, Message{To: "a@b.test"})

	assert.ErrorIs(t, err, domain.ErrTransport)
	s.AssertNumberOfCalls(t, "Send", 1)
}

func TestVerificationCode_Bodies(t *testing.T) {
	msg := VerificationCode("a@b.test", "Ann <admin>", "012345", 3*time.Minute)

	assert.Equal(t, "a@b.test", msg.To)
	assert.Equal(t, "Verify your email", msg.Subject)
	assert.Contains(t, msg.Text, "012345")
	assert.Contains(t, msg.Text, "3 minutes")
	assert.Contains(t, msg.HTML, "<strong>012345</strong>")
	assert.Contains(t, msg.HTML, "Ann &lt;admin&gt;")
}

func TestPasswordResetCode_Subject(t *testing.T) {
	msg := PasswordResetCode("a@b.test", "Ann", "999999", 10*time.Minute)

	assert.Equal(t, "Reset your password", msg.Subject)
	assert.Contains(t, msg.Text, "10 minutes")
}

func TestNewSender_SelectsBackend(t *testing.T) {
	s, err := NewSender(&config.Config{MailProvider: "log"})
	require.NoError(t, err)
	assert.IsType(t, LogSender{}, s)

	s, err = NewSender(&config.Config{MailProvider: "smtp", SMTPHost: "localhost", SMTPPort: 1025})
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(&config.Config{MailProvider: "resend"})
	assert.ErrorContains(t, err, "api key")

	_, err = NewSender(&config.Config{MailProvider: "pigeon"})
	assert.Error(t, err)
}

func TestEncryptionFor(t *testing.T) {
	assert.Equal(t, gomail.EncryptionSSLTLS, encryptionFor(465))
	assert.Equal(t, gomail.EncryptionNone, encryptionFor(1025))
	assert.Equal(t, gomail.EncryptionSTARTTLS, encryptionFor(587))
}
