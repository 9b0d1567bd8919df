package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venue-erp/venue-erp/internal/ledger/shared"
)

type memoryRepo struct {
	headers    map[int64]Header
	subHeaders map[int64]SubHeader
	accounts   map[int64]Account
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		headers:    map[int64]Header{},
		subHeaders: map[int64]SubHeader{},
		accounts:   map[int64]Account{},
	}
}

func (m *memoryRepo) addHeader(code, name string) Header {
	m.nextID++
	h := Header{ID: m.nextID, Code: code, Name: name}
	m.headers[h.ID] = h
	return h
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (m *memoryRepo) GetByCode(_ context.Context, code string) (Account, error) {
	for _, a := range m.accounts {
		if a.Code == code {
			return a, nil
		}
	}
	return Account{}, shared.ErrAccountNotFound
}

func (m *memoryRepo) List(_ context.Context, _ ListFilter) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryRepo) Create(_ context.Context, in CreateInput) (Account, error) {
	sh, ok := m.subHeaders[in.SubHeaderID]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	m.nextID++
	a := Account{
		ID:            m.nextID,
		Code:          in.Code,
		Name:          in.Name,
		Type:          in.Type,
		Currency:      in.Currency,
		SubHeaderCode: sh.Code,
		SubHeaderName: sh.Name,
		HeaderCode:    sh.HeaderCode,
		HeaderName:    sh.HeaderName,
	}
	m.accounts[a.ID] = a
	return a, nil
}

func (m *memoryRepo) UpdateName(_ context.Context, id int64, name string) error {
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrAccountNotFound
	}
	a.Name = name
	m.accounts[id] = a
	return nil
}

func (m *memoryRepo) GetHeader(_ context.Context, id int64) (Header, error) {
	h, ok := m.headers[id]
	if !ok {
		return Header{}, shared.ErrAccountNotFound
	}
	return h, nil
}

func (m *memoryRepo) CreateSubHeader(_ context.Context, in CreateSubHeaderInput) (SubHeader, error) {
	h, ok := m.headers[in.HeaderID]
	if !ok {
		return SubHeader{}, shared.ErrAccountNotFound
	}
	m.nextID++
	sh := SubHeader{
		ID:         m.nextID,
		Code:       in.Code,
		Name:       in.Name,
		HeaderID:   h.ID,
		HeaderCode: h.Code,
		HeaderName: h.Name,
	}
	m.subHeaders[sh.ID] = sh
	return sh, nil
}

func TestCreateSubHeaderExtendsHeaderCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	header := repo.addHeader("11", "Current Assets")

	sh, err := svc.CreateSubHeader(context.Background(), CreateSubHeaderInput{
		Code:     "1101",
		Name:     "Cash and Equivalents",
		HeaderID: header.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "11", sh.HeaderCode)
	require.Equal(t, "1101", sh.Code)
}

func TestCreateSubHeaderRejectsCodeOutsideHeader(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	header := repo.addHeader("11", "Current Assets")

	_, err := svc.CreateSubHeader(context.Background(), CreateSubHeaderInput{
		Code:     "2101",
		Name:     "Accounts Payable",
		HeaderID: header.ID,
	})
	require.ErrorIs(t, err, shared.ErrInvalidAccountCode)
	require.Empty(t, repo.subHeaders)
}

func TestCreateSubHeaderRejectsCodeEqualToHeader(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	header := repo.addHeader("11", "Current Assets")

	_, err := svc.CreateSubHeader(context.Background(), CreateSubHeaderInput{
		Code:     "11",
		Name:     "Current Assets Again",
		HeaderID: header.ID,
	})
	require.ErrorIs(t, err, shared.ErrInvalidAccountCode)
}

func TestCreateSubHeaderUnknownHeader(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateSubHeader(context.Background(), CreateSubHeaderInput{
		Code:     "1101",
		Name:     "Cash",
		HeaderID: 42,
	})
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestCreateAccountUnderSubHeader(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	header := repo.addHeader("11", "Current Assets")
	sh, err := svc.CreateSubHeader(context.Background(), CreateSubHeaderInput{
		Code:     "1101",
		Name:     "Cash and Equivalents",
		HeaderID: header.ID,
	})
	require.NoError(t, err)

	a, err := svc.Create(context.Background(), CreateInput{
		Code:        "110101",
		Name:        "Till Cash",
		Type:        AccountTypeCash,
		Currency:    "USD",
		SubHeaderID: sh.ID,
	})
	require.NoError(t, err)
	require.Equal(t, SignDebit, a.Sign())
	require.Equal(t, "11", a.HeaderCode)
}
