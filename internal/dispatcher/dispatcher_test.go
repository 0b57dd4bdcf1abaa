package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	mocks "github.com/aliskhannn/scheduled-notifier/internal/mocks/dispatcher"
	"github.com/aliskhannn/scheduled-notifier/internal/notify"
)

// pager routes only to an unsupported channel.
type pager struct{}

func (pager) NotifiableType() string { return "pager" }
func (pager) RouteNotificationFor(channel string) (string, bool) {
	return "555", channel == "sms"
}

func msg(channels ...string) *notify.Message {
	return &notify.Message{Subject: "Subj", Text: "Body", Via: channels}
}

func TestDispatch_RoutesOnlyAddressableChannels(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := mocks.NewMockSender(ctrl)
	telegram := mocks.NewMockSender(ctrl)

	d := New(map[string]Sender{
		notify.ChannelEmail:    email,
		notify.ChannelTelegram: telegram,
	}, retry.Strategy{Attempts: 1}, 0, 0)

	target := &notify.Recipient{ID: "1", Email: "user@example.com"}

	email.EXPECT().Send(gomock.Any(), "user@example.com", "Subj", "Body").Return(nil)

	err := d.Dispatch(context.Background(), target, msg(notify.ChannelTelegram, notify.ChannelEmail))
	assert.NoError(t, err)
}

func TestDispatch_AllChannels(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := mocks.NewMockSender(ctrl)
	telegram := mocks.NewMockSender(ctrl)

	d := New(map[string]Sender{
		notify.ChannelEmail:    email,
		notify.ChannelTelegram: telegram,
	}, retry.Strategy{Attempts: 1}, 0, 0)

	target := &notify.Recipient{ID: "1", Email: "user@example.com", TelegramID: "100"}

	email.EXPECT().Send(gomock.Any(), "user@example.com", "Subj", "Body").Return(nil)
	telegram.EXPECT().Send(gomock.Any(), "100", "Subj", "Body").Return(nil)

	err := d.Dispatch(context.Background(), target, msg(notify.ChannelEmail, notify.ChannelTelegram))
	assert.NoError(t, err)
}

func TestDispatch_NoRoute(t *testing.T) {
	d := New(map[string]Sender{}, retry.Strategy{Attempts: 1}, 0, 0)

	err := d.Dispatch(context.Background(), &notify.Recipient{ID: "1"}, msg(notify.ChannelEmail))
	assert.ErrorIs(t, err, ErrNoRoute)

	err = d.Dispatch(context.Background(), &notify.Recipient{ID: "1", Email: "a@b.c"}, msg())
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestDispatch_UnknownChannel(t *testing.T) {
	d := New(map[string]Sender{}, retry.Strategy{Attempts: 1}, 0, 0)

	err := d.Dispatch(context.Background(), pager{}, msg("sms"))
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestDispatch_RenderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := mocks.NewMockSender(ctrl)
	d := New(map[string]Sender{notify.ChannelEmail: email}, retry.Strategy{Attempts: 1}, 0, 0)

	empty := &notify.Message{Via: []string{notify.ChannelEmail}}
	err := d.Dispatch(context.Background(), &notify.Recipient{Email: "a@b.c"}, empty)
	assert.Error(t, err)
}

func TestDispatch_RetriesSender(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := mocks.NewMockSender(ctrl)
	strategy := retry.Strategy{Attempts: 3, Delay: time.Millisecond, Backoff: 1}
	d := New(map[string]Sender{notify.ChannelEmail: email}, strategy, 0, 0)

	gomock.InOrder(
		email.EXPECT().Send(gomock.Any(), "a@b.c", "Subj", "Body").Return(errors.New("temporary")),
		email.EXPECT().Send(gomock.Any(), "a@b.c", "Subj", "Body").Return(nil),
	)

	err := d.Dispatch(context.Background(), &notify.Recipient{Email: "a@b.c"}, msg(notify.ChannelEmail))
	assert.NoError(t, err)
}

func TestDispatch_FailsWhenAnyChannelFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := mocks.NewMockSender(ctrl)
	telegram := mocks.NewMockSender(ctrl)
	strategy := retry.Strategy{Attempts: 2, Delay: time.Millisecond, Backoff: 1}

	d := New(map[string]Sender{
		notify.ChannelEmail:    email,
		notify.ChannelTelegram: telegram,
	}, strategy, 0, 0)

	target := &notify.Recipient{Email: "a@b.c", TelegramID: "100"}

	email.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	telegram.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("blocked")).Times(2)

	err := d.Dispatch(context.Background(), target, msg(notify.ChannelEmail, notify.ChannelTelegram))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestDispatch_RateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := mocks.NewMockSender(ctrl)
	d := New(map[string]Sender{notify.ChannelEmail: email}, retry.Strategy{Attempts: 1}, 1, 1)

	email.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	target := &notify.Recipient{Email: "a@b.c"}
	require.NoError(t, d.Dispatch(context.Background(), target, msg(notify.ChannelEmail)))

	// the bucket is empty and refills in a second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Dispatch(ctx, target, msg(notify.ChannelEmail))
	assert.Error(t, err)
}

func TestDispatch_SetRate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	email := mocks.NewMockSender(ctrl)
	d := New(map[string]Sender{notify.ChannelEmail: email}, retry.Strategy{Attempts: 1}, 1, 1)

	email.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)

	target := &notify.Recipient{Email: "a@b.c"}
	require.NoError(t, d.Dispatch(context.Background(), target, msg(notify.ChannelEmail)))

	d.SetRate(0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, d.Dispatch(ctx, target, msg(notify.ChannelEmail)))
	assert.NoError(t, d.Dispatch(ctx, target, msg(notify.ChannelEmail)))
}
