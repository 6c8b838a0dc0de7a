package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	authrepository "github.com/smallbiznis/greenpack/internal/auth/repository"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/config"
	"github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	"github.com/smallbiznis/greenpack/pkg/db"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentMail struct {
	to       []string
	template string
	data     map[string]interface{}
}

type fakeEmail struct {
	sent []sentMail
	err  error
}

func (f *fakeEmail) Send(context.Context, []string, string, string) error { return f.err }

func (f *fakeEmail) SendTemplate(_ context.Context, to []string, name string, data interface{}) error {
	m, _ := data.(map[string]interface{})
	f.sent = append(f.sent, sentMail{to: to, template: name, data: m})
	return f.err
}

type fakeAudit struct {
	actions []string
}

func (f *fakeAudit) AuditLog(_ context.Context, _ string, _ *string, action string, _ string, _ *string, _ map[string]any) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeAudit) List(context.Context, auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type fixture struct {
	svc   domain.Service
	conn  *gorm.DB
	clock *clock.FakeClock
	email *fakeEmail
	audit *fakeAudit
}

func setup(t *testing.T) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Inquiry{}, &authdomain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	users, _ := authrepository.New(conn)
	fc := clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	mail := &fakeEmail{}
	audit := &fakeAudit{}

	cfg := config.Config{}
	cfg.Email.SalesRecipient = "sales@greenpack.local"

	svc := New(Params{
		Cfg:      cfg,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fc,
		Repo:     repository.ProvideStore[domain.Inquiry](conn),
		Users:    users,
		AuditSvc: audit,
		Email:    mail,
	})
	return fixture{svc: svc, conn: conn, clock: fc, email: mail, audit: audit}
}

func validFields() map[string]string {
	return map[string]string{
		"name":         "Jane Doe",
		"email":        "jane@example.com",
		"message":      "Need 5000 carry bags",
		"product_type": "Carry Bags",
	}
}

func TestSubmitStoresRecordAndNotifiesSales(t *testing.T) {
	f := setup(t)

	item, err := f.svc.Submit(context.Background(), domain.SubmitRequest{Fields: validFields()})
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.Equal(t, domain.StatusNew, item.Status)
	assert.Nil(t, item.UserID)
	assert.Equal(t, "Carry Bags", item.ProductType)

	count, err := f.svc.Count(context.Background(), domain.CountFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, []string{"sales@greenpack.local"}, f.email.sent[0].to)
	assert.Equal(t, "Jane Doe", f.email.sent[0].data["name"])
}

func TestSubmitValidationErrorStoresNothing(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Submit(context.Background(), domain.SubmitRequest{Fields: map[string]string{
		"name":    "",
		"email":   "bad",
		"message": "hello",
	}})

	var verr *leadcapture.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []leadcapture.FieldError{
		{Field: "name", Kind: leadcapture.Required},
		{Field: "email", Kind: leadcapture.InvalidFormat},
	}, verr.Errors)

	count, err := f.svc.Count(context.Background(), domain.CountFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.email.sent)
}

func TestSubmitSurvivesNotificationFailure(t *testing.T) {
	f := setup(t)
	f.email.err = errors.New("smtp down")

	_, err := f.svc.Submit(context.Background(), domain.SubmitRequest{Fields: validFields()})
	require.NoError(t, err)
}

func TestSubmitPassesStorageErrorThrough(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.conn.Migrator().DropTable(&domain.Inquiry{}))

	_, err := f.svc.Submit(context.Background(), domain.SubmitRequest{Fields: validFields()})
	var storageErr *repository.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "inquiries", storageErr.Collection)
}

func TestListByUserNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	session := &leadcapture.SessionInfo{UserID: snowflake.ID(77), Email: "jane@example.com"}

	first, err := f.svc.Submit(ctx, domain.SubmitRequest{Fields: validFields(), Session: session})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.svc.Submit(ctx, domain.SubmitRequest{Fields: validFields(), Session: session})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.Submit(ctx, domain.SubmitRequest{Fields: validFields()})
	require.NoError(t, err)

	items, err := f.svc.ListByUser(ctx, snowflake.ID(77))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestListPaginatesAndFiltersByStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var ids []snowflake.ID
	for i := 0; i < 3; i++ {
		item, err := f.svc.Submit(ctx, domain.SubmitRequest{Fields: validFields()})
		require.NoError(t, err)
		ids = append(ids, item.ID)
		f.clock.Advance(time.Second)
	}

	req := domain.ListRequest{}
	req.PageSize = 2
	page, err := f.svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, page.Inquiries, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, ids[2], page.Inquiries[0].ID)

	req.PageToken = page.NextPageToken
	next, err := f.svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, next.Inquiries, 1)
	assert.False(t, next.HasMore)
	assert.Equal(t, ids[0], next.Inquiries[0].ID)

	_, err = f.svc.UpdateStatus(ctx, ids[1], domain.StatusQuoted)
	require.NoError(t, err)
	quoted, err := f.svc.List(ctx, domain.ListRequest{Status: domain.StatusQuoted})
	require.NoError(t, err)
	require.Len(t, quoted.Inquiries, 1)
	assert.Equal(t, ids[1], quoted.Inquiries[0].ID)

	_, err = f.svc.List(ctx, domain.ListRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	bad := domain.ListRequest{}
	bad.PageToken = "***"
	_, err = f.svc.List(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestUpdateStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	item, err := f.svc.Submit(ctx, domain.SubmitRequest{Fields: validFields()})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	updated, err := f.svc.UpdateStatus(ctx, item.ID, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.True(t, updated.UpdatedAt.After(item.UpdatedAt))
	assert.Equal(t, []string{"inquiry.status_updated"}, f.audit.actions)

	newCount, err := f.svc.Count(ctx, domain.CountFilter{Status: domain.StatusNew})
	require.NoError(t, err)
	assert.Zero(t, newCount)

	_, err = f.svc.UpdateStatus(ctx, item.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(ctx, snowflake.ID(12345), domain.StatusClosed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignRequiresStaffUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := f.clock.Now()

	require.NoError(t, f.conn.Create(&authdomain.User{ID: 10, Email: "pm@greenpack.local", Role: authdomain.RoleProductManager, CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, f.conn.Create(&authdomain.User{ID: 11, Email: "c@example.com", Role: authdomain.RoleCustomer, CreatedAt: now, UpdatedAt: now}).Error)

	item, err := f.svc.Submit(ctx, domain.SubmitRequest{Fields: validFields()})
	require.NoError(t, err)

	assigned, err := f.svc.Assign(ctx, item.ID, 10)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.EqualValues(t, 10, *assigned.AssignedTo)

	_, err = f.svc.Assign(ctx, item.ID, 11)
	assert.ErrorIs(t, err, domain.ErrInvalidAssignee)

	_, err = f.svc.Assign(ctx, item.ID, 999)
	assert.ErrorIs(t, err, domain.ErrInvalidAssignee)
}

func TestListRecentDefaultsToTen(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := f.svc.Submit(ctx, domain.SubmitRequest{Fields: validFields()})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	items, err := f.svc.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.True(t, items[0].CreatedAt.After(items[9].CreatedAt))
}
