package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	"github.com/smallbiznis/greenpack/internal/subscriber/domain"
	"github.com/smallbiznis/greenpack/pkg/db"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmail struct {
	templates []string
}

func (f *fakeEmail) Send(context.Context, []string, string, string) error { return nil }

func (f *fakeEmail) SendTemplate(_ context.Context, _ []string, name string, _ interface{}) error {
	f.templates = append(f.templates, name)
	return nil
}

func setup(t *testing.T) (domain.Service, *clock.FakeClock, *fakeEmail) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Subscriber{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	mail := &fakeEmail{}
	svc := New(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  repository.ProvideStore[domain.Subscriber](conn),
		Email: mail,
	})
	return svc, fc, mail
}

func TestSubscribeNewEmail(t *testing.T) {
	svc, _, mail := setup(t)

	sub, err := svc.Subscribe(context.Background(), domain.SubscribeRequest{
		Kind:   leadcapture.KindNewsletter,
		Fields: map[string]string{"email": "  Jane@Example.com ", "name": "Jane"},
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", sub.Email)
	assert.Equal(t, domain.SourceNewsletter, sub.Source)
	assert.True(t, sub.Subscribed)
	assert.Equal(t, []string{"welcome"}, mail.templates)

	count, err := svc.CountActive(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSubscribeDuplicateActiveEmail(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	req := domain.SubscribeRequest{Kind: leadcapture.KindCommunity, Fields: map[string]string{"email": "sam@example.com"}}

	_, err := svc.Subscribe(ctx, req)
	require.NoError(t, err)

	_, err = svc.Subscribe(ctx, req)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
}

func TestUnsubscribeThenResubscribe(t *testing.T) {
	svc, fc, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, domain.SubscribeRequest{Kind: leadcapture.KindNewsletter, Fields: map[string]string{"email": "sam@example.com"}})
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, "SAM@example.com"))
	count, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// unsubscribing twice is a no-op
	require.NoError(t, svc.Unsubscribe(ctx, "sam@example.com"))

	fc.Advance(24 * time.Hour)
	again, err := svc.Subscribe(ctx, domain.SubscribeRequest{Kind: leadcapture.KindCommunity, Fields: map[string]string{"email": "sam@example.com", "name": "Sam"}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, domain.SourceCommunity, again.Source)
	assert.Equal(t, "Sam", again.Name)
	assert.True(t, again.SubscribedAt.After(first.SubscribedAt))

	count, err = svc.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSubscribeValidation(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Subscribe(context.Background(), domain.SubscribeRequest{Kind: leadcapture.KindNewsletter, Fields: map[string]string{"email": "nope"}})
	var verr *leadcapture.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []leadcapture.FieldError{{Field: "email", Kind: leadcapture.InvalidFormat}}, verr.Errors)

	_, err = svc.Subscribe(context.Background(), domain.SubscribeRequest{Kind: leadcapture.KindInquiry, Fields: map[string]string{"email": "a@b.co"}})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestUnsubscribeUnknown(t *testing.T) {
	svc, _, _ := setup(t)

	assert.ErrorIs(t, svc.Unsubscribe(context.Background(), "ghost@example.com"), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Unsubscribe(context.Background(), " "), domain.ErrInvalidEmail)
}

func TestListActiveOnly(t *testing.T) {
	svc, fc, _ := setup(t)
	ctx := context.Background()

	for _, addr := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Subscribe(ctx, domain.SubscribeRequest{Kind: leadcapture.KindNewsletter, Fields: map[string]string{"email": addr}})
		require.NoError(t, err)
		fc.Advance(time.Minute)
	}
	require.NoError(t, svc.Unsubscribe(ctx, "b@example.com"))

	all, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Subscribers, 3)
	assert.Equal(t, "c@example.com", all.Subscribers[0].Email)

	active, err := svc.List(ctx, domain.ListRequest{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active.Subscribers, 2)
}
