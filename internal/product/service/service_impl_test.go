package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/authcontext"
	"github.com/resqfood/resq/internal/clock"
	"github.com/resqfood/resq/internal/product/domain"
	storedomain "github.com/resqfood/resq/internal/store/domain"
	"go.uber.org/zap"
)

type repoStub struct {
	mu         sync.Mutex
	created    []*domain.Product
	failCreate error
}

func (r *repoStub) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.created = append(r.created, product)
	return nil
}

func (r *repoStub) FindByID(_ context.Context, id snowflake.ID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.created {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *repoStub) ListActive(context.Context, time.Time, domain.ListFilter) ([]domain.Listing, error) {
	return nil, nil
}

func (r *repoStub) Delete(_ context.Context, id snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.created {
		if p.ID == id {
			r.created = append(r.created[:i], r.created[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *repoStub) FetchStock(context.Context, snowflake.ID) (int, error) { return 0, nil }

func (r *repoStub) DecrementStockAtomic(context.Context, snowflake.ID, int) error { return nil }

func (r *repoStub) DecrementStockGuarded(context.Context, snowflake.ID, int, int) (int64, error) {
	return 0, nil
}

type ownerStub struct {
	ownerID snowflake.ID
	storeID snowflake.ID
}

func (s *ownerStub) Create(context.Context, *storedomain.Store) error { return nil }

func (s *ownerStub) FindByID(context.Context, snowflake.ID) (*storedomain.Store, error) {
	return nil, storedomain.ErrNotFound
}

func (s *ownerStub) FindByOwner(context.Context, snowflake.ID) ([]storedomain.Store, error) {
	return nil, nil
}

func (s *ownerStub) FindAll(context.Context) ([]storedomain.Store, error) { return nil, nil }

func (s *ownerStub) OwnsStore(_ context.Context, ownerID, storeID snowflake.ID) (bool, error) {
	return ownerID == s.ownerID && storeID == s.storeID, nil
}

type blobStub struct {
	mu       sync.Mutex
	uploads  []string
	deletes  []string
	failWith error
}

func (b *blobStub) Upload(_ context.Context, path string, _ string, body io.Reader) (string, error) {
	if b.failWith != nil {
		return "", b.failWith
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, path)
	return path, nil
}

func (b *blobStub) PublicURL(path string) string { return "/files/" + path }

func (b *blobStub) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, path)
	return nil
}

type productFixture struct {
	svc     domain.Service
	repo    *repoStub
	blobs   *blobStub
	clock   *clock.FakeClock
	ownerID snowflake.ID
	storeID snowflake.ID
	node    *snowflake.Node
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	ownerID := node.Generate()
	storeID := node.Generate()
	repo := &repoStub{}
	blobs := &blobStub{}
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	svc := New(Params{
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Repo:   repo,
		Stores: &ownerStub{ownerID: ownerID, storeID: storeID},
		Blobs:  blobs,
	})

	return &productFixture{
		svc:     svc,
		repo:    repo,
		blobs:   blobs,
		clock:   fake,
		ownerID: ownerID,
		storeID: storeID,
		node:    node,
	}
}

func (f *productFixture) partnerCtx() context.Context {
	ctx := authcontext.WithAccountID(context.Background(), f.ownerID)
	return authcontext.WithRole(ctx, authcontext.RolePartner)
}

func (f *productFixture) validRequest() domain.CreateRequest {
	return domain.CreateRequest{
		StoreID:       f.storeID.String(),
		Title:         "Surprise box",
		OriginalPrice: 25000,
		DiscountPrice: 10000,
		StockQuantity: 5,
		ExpiryDate:    f.clock.Now().Add(12 * time.Hour),
		CO2Saved:      1.2,
	}
}

func TestCreateProduct(t *testing.T) {
	f := newProductFixture(t)

	resp, err := f.svc.Create(f.partnerCtx(), f.validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Title != "Surprise box" {
		t.Fatalf("unexpected title %q", resp.Title)
	}
	if len(f.repo.created) != 1 {
		t.Fatalf("expected 1 product row, got %d", len(f.repo.created))
	}
}

func TestCreateProductValidation(t *testing.T) {
	f := newProductFixture(t)

	cases := []struct {
		name    string
		mutate  func(*domain.CreateRequest)
		wantErr error
	}{
		{"empty title", func(r *domain.CreateRequest) { r.Title = "  " }, domain.ErrInvalidTitle},
		{"zero original price", func(r *domain.CreateRequest) { r.OriginalPrice = 0 }, domain.ErrInvalidPrice},
		{"discount above original", func(r *domain.CreateRequest) { r.DiscountPrice = 30000 }, domain.ErrInvalidDiscount},
		{"discount equals original", func(r *domain.CreateRequest) { r.DiscountPrice = r.OriginalPrice }, domain.ErrInvalidDiscount},
		{"negative stock", func(r *domain.CreateRequest) { r.StockQuantity = -1 }, domain.ErrInvalidStock},
		{"expiry in the past", func(r *domain.CreateRequest) { r.ExpiryDate = f.clock.Now().Add(-time.Hour) }, domain.ErrInvalidExpiry},
		{"negative co2", func(r *domain.CreateRequest) { r.CO2Saved = -0.1 }, domain.ErrInvalidCO2},
		{"bad store id", func(r *domain.CreateRequest) { r.StoreID = "nope" }, domain.ErrInvalidID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.validRequest()
			tc.mutate(&req)
			if _, err := f.svc.Create(f.partnerCtx(), req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if len(f.repo.created) != 0 {
		t.Fatalf("validation failures must not create rows, got %d", len(f.repo.created))
	}
}

func TestCreateProductAuthorization(t *testing.T) {
	f := newProductFixture(t)

	if _, err := f.svc.Create(context.Background(), f.validRequest()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	consumer := authcontext.WithRole(
		authcontext.WithAccountID(context.Background(), f.node.Generate()),
		authcontext.RoleConsumer,
	)
	if _, err := f.svc.Create(consumer, f.validRequest()); !errors.Is(err, domain.ErrPartnerOnly) {
		t.Fatalf("expected ErrPartnerOnly, got %v", err)
	}

	otherPartner := authcontext.WithRole(
		authcontext.WithAccountID(context.Background(), f.node.Generate()),
		authcontext.RolePartner,
	)
	if _, err := f.svc.Create(otherPartner, f.validRequest()); !errors.Is(err, domain.ErrNotStoreOwner) {
		t.Fatalf("expected ErrNotStoreOwner, got %v", err)
	}
}

func TestCreateProductWithImage(t *testing.T) {
	f := newProductFixture(t)

	req := f.validRequest()
	req.Image = &domain.ImageUpload{
		FileName:    "box.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg-bytes"),
	}

	resp, err := f.svc.Create(f.partnerCtx(), req)
	if err != nil {
		t.Fatalf("create with image: %v", err)
	}
	if resp.ImageURL == nil || !strings.HasPrefix(*resp.ImageURL, "/files/listings/") {
		t.Fatalf("expected public image URL, got %v", resp.ImageURL)
	}
	if len(f.blobs.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(f.blobs.uploads))
	}
	if len(f.blobs.deletes) != 0 {
		t.Fatalf("expected no deletes on success, got %d", len(f.blobs.deletes))
	}
}

func TestCreateProductImageCompensation(t *testing.T) {
	f := newProductFixture(t)
	f.repo.failCreate = errors.New("insert failed")

	req := f.validRequest()
	req.Image = &domain.ImageUpload{
		FileName:    "box.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg-bytes"),
	}

	if _, err := f.svc.Create(f.partnerCtx(), req); err == nil {
		t.Fatal("expected create to fail")
	}

	// The blob uploaded before the failed insert must be cleaned up.
	if len(f.blobs.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(f.blobs.uploads))
	}
	if len(f.blobs.deletes) != 1 {
		t.Fatalf("expected compensating delete, got %d", len(f.blobs.deletes))
	}
	if f.blobs.deletes[0] != f.blobs.uploads[0] {
		t.Fatalf("deleted %q, uploaded %q", f.blobs.deletes[0], f.blobs.uploads[0])
	}
}

func TestDeleteProductOwnership(t *testing.T) {
	f := newProductFixture(t)

	resp, err := f.svc.Create(f.partnerCtx(), f.validRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := authcontext.WithRole(
		authcontext.WithAccountID(context.Background(), f.node.Generate()),
		authcontext.RolePartner,
	)
	if err := f.svc.Delete(stranger, resp.ID); !errors.Is(err, domain.ErrNotStoreOwner) {
		t.Fatalf("expected ErrNotStoreOwner, got %v", err)
	}

	if err := f.svc.Delete(f.partnerCtx(), resp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.repo.created) != 0 {
		t.Fatalf("expected product removed, got %d", len(f.repo.created))
	}
}
