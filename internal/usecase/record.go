package usecase

import (
	"context"
	"sort"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
)

// PutRecordInput writes Record at URI, replacing whatever was there.
type PutRecordInput struct {
	URI    repoindex.RecordURI
	Record map[string]any
	// SkipValidation indexes records the schema does not know yet.
	SkipValidation bool
}

type RepoDescription struct {
	Did         string   `json:"did"`
	Root        string   `json:"root,omitempty"`
	Collections []string `json:"collections"`
}

type RecordUsecase struct {
	store RecordStore
	users UserStore
}

func NewRecordUsecase(store RecordStore, users UserStore) *RecordUsecase {
	return &RecordUsecase{store: store, users: users}
}

func (uc *RecordUsecase) Validate(collection string, obj map[string]any) domain.ValidationResult {
	return uc.store.ValidateRecord(collection, obj)
}

func (uc *RecordUsecase) Put(ctx context.Context, input PutRecordInput) error {
	if !input.SkipValidation {
		ok, err := uc.store.CanIndexRecord(input.URI.Collection, input.Record)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InvalidRecordError{Result: uc.store.ValidateRecord(input.URI.Collection, input.Record)}
		}
	}

	existing, err := uc.store.GetRecord(ctx, input.URI)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := uc.store.DeleteRecord(ctx, input.URI); err != nil {
			return err
		}
	}

	return uc.store.IndexRecord(ctx, input.URI, input.Record)
}

func (uc *RecordUsecase) Delete(ctx context.Context, uri repoindex.RecordURI) error {
	return uc.store.DeleteRecord(ctx, uri)
}

func (uc *RecordUsecase) Get(ctx context.Context, uri repoindex.RecordURI) (map[string]any, error) {
	value, err := uc.store.GetRecord(ctx, uri)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, domain.NotFoundError{Resource: "record"}
	}
	return value, nil
}

// List resolves q.Did as a handle or did before listing.
func (uc *RecordUsecase) List(ctx context.Context, q domain.ListRecordsQuery) ([]domain.RecordEntry, error) {
	did, err := uc.users.GetUserDid(ctx, q.Did)
	if err != nil {
		return nil, err
	}
	q.Did = did
	return uc.store.ListRecordsForCollection(ctx, q)
}

// DescribeRepo lists each collection of the repository once.
func (uc *RecordUsecase) DescribeRepo(ctx context.Context, handleOrDid string) (RepoDescription, error) {
	did, err := uc.users.GetUserDid(ctx, handleOrDid)
	if err != nil {
		return RepoDescription{}, err
	}

	collections, err := uc.store.ListCollectionsForDid(ctx, did)
	if err != nil {
		return RepoDescription{}, err
	}

	root, err := uc.store.GetRepoRoot(ctx, did)
	if err != nil {
		return RepoDescription{}, err
	}

	return RepoDescription{
		Did:         did,
		Root:        root,
		Collections: dedupSorted(collections),
	}, nil
}

func (uc *RecordUsecase) UpdateRoot(ctx context.Context, did, root string) error {
	return uc.store.UpdateRepoRoot(ctx, did, root)
}

func dedupSorted(in []string) []string {
	out := make([]string, 0, len(in))
	sort.Strings(in)
	for i, s := range in {
		if i > 0 && in[i-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}
