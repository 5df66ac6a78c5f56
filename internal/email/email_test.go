package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSenderSendOTP(t *testing.T) {
	fake := &fakeSES{}
	s := &SESSender{client: fake, fromEmail: "no-reply@echoes.art", fromName: "Echoes of Art"}

	require.NoError(t, s.SendOTP(context.Background(), "a@x.com", "<b>ann</b>", "123456", 10*time.Minute))
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, "Echoes of Art <no-reply@echoes.art>", aws.ToString(in.Source))
	assert.Equal(t, []string{"a@x.com"}, in.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(in.Message.Body.Text.Data), "123456")
	assert.Contains(t, aws.ToString(in.Message.Body.Text.Data), "10 minutes")
	assert.Contains(t, aws.ToString(in.Message.Body.Html.Data), "&lt;b&gt;ann&lt;/b&gt;")
}

func TestSESSenderWrapsErrors(t *testing.T) {
	boom := errors.New("throttled")
	s := &SESSender{client: &fakeSES{err: boom}, fromEmail: "no-reply@echoes.art"}

	err := s.SendWelcome(context.Background(), "a@x.com", "ann")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.EmailConfig{Provider: "log"})
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	_, err = NewSender(config.EmailConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestMockSender(t *testing.T) {
	m := &MockSender{}
	require.NoError(t, m.SendOTP(context.Background(), "a@x.com", "a", "111111", time.Minute))
	require.NoError(t, m.SendOTP(context.Background(), "a@x.com", "a", "222222", time.Minute))

	code, ok := m.LastOTP("a@x.com")
	assert.True(t, ok)
	assert.Equal(t, "222222", code)
	assert.Equal(t, 2, m.Count("otp"))

	_, ok = m.LastOTP("b@x.com")
	assert.False(t, ok)
}
