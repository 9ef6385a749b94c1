package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
)

type mockRecordStore struct {
	valid     bool
	records   map[string]map[string]any
	deleted   []string
	indexed   []string
	roots     map[string]string
	collected []string
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{
		valid:   true,
		records: map[string]map[string]any{},
		roots:   map[string]string{},
	}
}

func (m *mockRecordStore) ValidateRecord(collection string, obj map[string]any) domain.ValidationResult {
	if m.valid {
		return domain.ValidationOK()
	}
	return domain.ValidationResult{Valid: false, Code: domain.ValidationInvalid, Message: "text: incomplete value"}
}

func (m *mockRecordStore) CanIndexRecord(collection string, obj map[string]any) (bool, error) {
	return m.valid, nil
}

func (m *mockRecordStore) IndexRecord(ctx context.Context, uri repoindex.RecordURI, obj map[string]any) error {
	m.indexed = append(m.indexed, uri.String())
	m.records[uri.String()] = obj
	return nil
}

func (m *mockRecordStore) DeleteRecord(ctx context.Context, uri repoindex.RecordURI) error {
	m.deleted = append(m.deleted, uri.String())
	delete(m.records, uri.String())
	return nil
}

func (m *mockRecordStore) GetRecord(ctx context.Context, uri repoindex.RecordURI) (map[string]any, error) {
	return m.records[uri.String()], nil
}

func (m *mockRecordStore) ListCollectionsForDid(ctx context.Context, did string) ([]string, error) {
	return m.collected, nil
}

func (m *mockRecordStore) ListRecordsForCollection(ctx context.Context, q domain.ListRecordsQuery) ([]domain.RecordEntry, error) {
	return nil, nil
}

func (m *mockRecordStore) GetRepoRoot(ctx context.Context, did string) (string, error) {
	return m.roots[did], nil
}

func (m *mockRecordStore) UpdateRepoRoot(ctx context.Context, did, root string) error {
	m.roots[did] = root
	return nil
}

type mockUserStore struct {
	dids     map[string]string
	password string
}

func (m *mockUserStore) RegisterUser(ctx context.Context, input domain.RegisterUserInput) error {
	m.dids[input.Username] = input.Did
	m.password = input.Password
	return nil
}

func (m *mockUserStore) GetUser(ctx context.Context, handleOrDid string) (*domain.User, error) {
	return &domain.User{Did: handleOrDid}, nil
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.NotFoundError{Resource: "user"}
}

func (m *mockUserStore) GetUserDid(ctx context.Context, handleOrDid string) (string, error) {
	if repoindex.IsDID(handleOrDid) {
		return handleOrDid, nil
	}
	did, ok := m.dids[handleOrDid]
	if !ok {
		return "", domain.NotFoundError{Resource: "user"}
	}
	return did, nil
}

func (m *mockUserStore) UpdateUserPassword(ctx context.Context, did, password string) error {
	m.password = password
	return nil
}

func (m *mockUserStore) VerifyUserPassword(ctx context.Context, username, password string) (bool, error) {
	return password == m.password, nil
}

var postURI = repoindex.RecordURI{Did: "did:plc:alice", Collection: domain.CollectionPost, RecordKey: "1"}

func TestRecordUsecasePutReplaces(t *testing.T) {
	store := newMockRecordStore()
	uc := NewRecordUsecase(store, &mockUserStore{})

	if err := uc.Put(context.Background(), PutRecordInput{URI: postURI, Record: map[string]any{"text": "v1"}}); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("unexpected delete %v", store.deleted)
	}

	if err := uc.Put(context.Background(), PutRecordInput{URI: postURI, Record: map[string]any{"text": "v2"}}); err != nil {
		t.Fatalf("second put failed: %v", err)
	}
	if len(store.deleted) != 1 || len(store.indexed) != 2 {
		t.Fatalf("expected delete then insert, got deleted=%v indexed=%v", store.deleted, store.indexed)
	}
	if store.records[postURI.String()]["text"] != "v2" {
		t.Fatalf("record not replaced: %v", store.records)
	}
}

func TestRecordUsecasePutInvalid(t *testing.T) {
	store := newMockRecordStore()
	store.valid = false
	uc := NewRecordUsecase(store, &mockUserStore{})

	err := uc.Put(context.Background(), PutRecordInput{URI: postURI, Record: map[string]any{}})
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("expected invalid record error, got %v", err)
	}
	if len(store.indexed) != 0 {
		t.Fatalf("invalid record was indexed")
	}

	err = uc.Put(context.Background(), PutRecordInput{URI: postURI, Record: map[string]any{}, SkipValidation: true})
	if err != nil {
		t.Fatalf("put without validation failed: %v", err)
	}
}

func TestRecordUsecaseGetMissing(t *testing.T) {
	uc := NewRecordUsecase(newMockRecordStore(), &mockUserStore{})

	_, err := uc.Get(context.Background(), postURI)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordUsecaseDescribeRepo(t *testing.T) {
	store := newMockRecordStore()
	store.collected = []string{domain.CollectionFollow, domain.CollectionPost, domain.CollectionPost, domain.CollectionLike}
	store.roots["did:plc:alice"] = "bafyreiaaa"
	users := &mockUserStore{dids: map[string]string{"alice": "did:plc:alice"}}
	uc := NewRecordUsecase(store, users)

	desc, err := uc.DescribeRepo(context.Background(), "alice")
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}

	want := []string{domain.CollectionFollow, domain.CollectionLike, domain.CollectionPost}
	if len(desc.Collections) != len(want) {
		t.Fatalf("expected %v got %v", want, desc.Collections)
	}
	for i := range want {
		if desc.Collections[i] != want[i] {
			t.Fatalf("expected %v got %v", want, desc.Collections)
		}
	}
	if desc.Did != "did:plc:alice" || desc.Root != "bafyreiaaa" {
		t.Fatalf("unexpected description %+v", desc)
	}

	if _, err := uc.DescribeRepo(context.Background(), "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
