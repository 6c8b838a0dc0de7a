package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/internal/dashboard/domain"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
	productdomain "github.com/smallbiznis/greenpack/internal/product/domain"
	subscriberdomain "github.com/smallbiznis/greenpack/internal/subscriber/domain"
	"go.uber.org/zap"
)

type fakeInquiries struct {
	inquirydomain.Service
	items    []inquirydomain.Inquiry
	countErr error
	limit    int
}

func (f *fakeInquiries) Count(_ context.Context, filter inquirydomain.CountFilter) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, item := range f.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeInquiries) ListRecent(_ context.Context, limit int) ([]inquirydomain.Inquiry, error) {
	f.limit = limit
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeInquiries) ListByUser(_ context.Context, userID snowflake.ID) ([]inquirydomain.Inquiry, error) {
	var out []inquirydomain.Inquiry
	for _, item := range f.items {
		if item.UserID != nil && *item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeSubscribers struct {
	subscriberdomain.Service
	active int64
}

func (f *fakeSubscribers) CountActive(context.Context) (int64, error) { return f.active, nil }

type fakeProducts struct {
	productdomain.Service
	count int64
}

func (f *fakeProducts) Count(context.Context) (int64, error) { return f.count, nil }

func TestAdminOverview(t *testing.T) {
	items := make([]inquirydomain.Inquiry, 0, 12)
	for i := 0; i < 12; i++ {
		status := inquirydomain.StatusClosed
		if i%3 == 0 {
			status = inquirydomain.StatusNew
		}
		items = append(items, inquirydomain.Inquiry{ID: snowflake.ID(i + 1), Status: status})
	}
	inquiries := &fakeInquiries{items: items}

	svc := NewService(Params{
		Log:         zap.NewNop(),
		Inquiries:   inquiries,
		Subscribers: &fakeSubscribers{active: 42},
		Products:    &fakeProducts{count: 7},
	})

	got, err := svc.AdminOverview(context.Background())
	if err != nil {
		t.Fatalf("admin overview: %v", err)
	}
	if got.TotalProducts != 7 || got.TotalInquiries != 12 || got.NewInquiries != 4 || got.ActiveSubscribers != 42 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if inquiries.limit != domain.RecentInquiryLimit || len(got.RecentInquiries) != domain.RecentInquiryLimit {
		t.Fatalf("expected %d recent inquiries, got %d", domain.RecentInquiryLimit, len(got.RecentInquiries))
	}
}

func TestAdminOverviewPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(Params{
		Log:         zap.NewNop(),
		Inquiries:   &fakeInquiries{countErr: boom},
		Subscribers: &fakeSubscribers{},
		Products:    &fakeProducts{},
	})
	if _, err := svc.AdminOverview(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestCustomerOverviewCountsOwnInquiries(t *testing.T) {
	owner := snowflake.ID(100)
	other := snowflake.ID(200)
	svc := NewService(Params{
		Log: zap.NewNop(),
		Inquiries: &fakeInquiries{items: []inquirydomain.Inquiry{
			{ID: 1, UserID: &owner, Status: inquirydomain.StatusQuoted},
			{ID: 2, UserID: &owner, Status: inquirydomain.StatusNew},
			{ID: 3, UserID: &other, Status: inquirydomain.StatusNew},
			{ID: 4, Status: inquirydomain.StatusNew},
		}},
		Subscribers: &fakeSubscribers{},
		Products:    &fakeProducts{},
	})

	got, err := svc.CustomerOverview(context.Background(), owner)
	if err != nil {
		t.Fatalf("customer overview: %v", err)
	}
	if got.TotalInquiries != 2 || len(got.Inquiries) != 2 {
		t.Fatalf("expected 2 inquiries, got %+v", got)
	}
	if got.ByStatus["quoted"] != 1 || got.ByStatus["new"] != 1 || got.ByStatus["closed"] != 0 {
		t.Fatalf("unexpected status counts %v", got.ByStatus)
	}
	if _, ok := got.ByStatus["in_progress"]; !ok {
		t.Fatalf("expected every status key present")
	}

	if _, err := svc.CustomerOverview(context.Background(), 0); !errors.Is(err, domain.ErrInvalidUser) {
		t.Fatalf("expected invalid user, got %v", err)
	}
}
