package permissions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/permissions"
	"github.com/gatekeep/gatekeep/internal/shared"
	_ "github.com/gatekeep/gatekeep/testing"
)

type fakeRepo struct {
	items  map[int64]permissions.Permission
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]permissions.Permission{}, nextID: 1}
}

func (f *fakeRepo) List(ctx context.Context) ([]permissions.Permission, error) {
	out := make([]permissions.Permission, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (permissions.Permission, error) {
	p, ok := f.items[id]
	if !ok {
		return permissions.Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) Create(ctx context.Context, name, description string) (permissions.Permission, error) {
	for _, p := range f.items {
		if p.Name == name {
			return permissions.Permission{}, shared.ErrAlreadyExists
		}
	}
	p := permissions.Permission{ID: f.nextID, Name: name, Description: description}
	f.items[p.ID] = p
	f.nextID++
	return p, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, name, description string) (permissions.Permission, error) {
	p, ok := f.items[id]
	if !ok {
		return permissions.Permission{}, shared.ErrNotFound
	}
	p.Name = name
	p.Description = description
	f.items[id] = p
	return p, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) Count(ctx context.Context) (int, error) {
	return len(f.items), nil
}

func TestCreateTrimsName(t *testing.T) {
	svc := permissions.NewService(newFakeRepo())

	p, err := svc.Create(context.Background(), "  reports.read  ", "View reports")
	require.NoError(t, err)
	require.Equal(t, "reports.read", p.Name)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := permissions.NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), "   ", "desc")
	require.Error(t, err)
	require.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCreateDuplicateName(t *testing.T) {
	svc := permissions.NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), "reports.read", "")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "reports.read", "")
	require.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestUpdateMissingPermission(t *testing.T) {
	svc := permissions.NewService(newFakeRepo())

	_, err := svc.Update(context.Background(), 99, "reports.read", "")
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeleteMissingPermission(t *testing.T) {
	svc := permissions.NewService(newFakeRepo())

	err := svc.Delete(context.Background(), 99)
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
