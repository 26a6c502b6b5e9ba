package seed

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"minierp/internal/domain"
	"minierp/internal/dto"
	"minierp/internal/errors"
)

const sampleFixtures = `
users:
  - email: admin@minierp.local
    password: Admin123!
    firstName: System
    lastName: Admin
    roles: [Admin, User]
customers:
  - firstName: John
    lastName: Doe
    email: john@example.com
    phone: "555-0100"
products:
  - name: Widget
    price: "10.00"
    stockQuantity: 5
    sku: WID-001
  - name: Gadget
    price: "0.10"
    stockQuantity: 100
`

type mockRegistrar struct {
	RegisterFunc func(ctx context.Context, req dto.RegisterRequest, roles ...string) (*domain.User, error)
}

func (m *mockRegistrar) Register(ctx context.Context, req dto.RegisterRequest, roles ...string) (*domain.User, error) {
	return m.RegisterFunc(ctx, req, roles...)
}

type mockCustomerStore struct {
	CreateFunc func(ctx context.Context, c *domain.Customer) error
}

func (m *mockCustomerStore) Create(ctx context.Context, c *domain.Customer) error {
	return m.CreateFunc(ctx, c)
}

type mockProductStore struct {
	FindAllFunc func(ctx context.Context) ([]domain.Product, error)
	CreateFunc  func(ctx context.Context, p *domain.Product) error
}

func (m *mockProductStore) FindAll(ctx context.Context) ([]domain.Product, error) {
	return m.FindAllFunc(ctx)
}

func (m *mockProductStore) Create(ctx context.Context, p *domain.Product) error {
	return m.CreateFunc(ctx, p)
}

func TestDecode(t *testing.T) {
	fx, err := Decode(strings.NewReader(sampleFixtures))

	require.NoError(t, err)
	require.Len(t, fx.Users, 1)
	assert.Equal(t, []string{domain.RoleAdmin, domain.RoleUser}, fx.Users[0].Roles)
	require.Len(t, fx.Customers, 1)
	require.NotNil(t, fx.Customers[0].Phone)
	assert.Equal(t, "555-0100", *fx.Customers[0].Phone)
	require.Len(t, fx.Products, 2)
	assert.True(t, decimal.RequireFromString("0.10").Equal(fx.Products[1].toDomain().Price))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad price", "products:\n  - name: X\n    price: abc\n"},
		{"zero price", "products:\n  - name: X\n    price: \"0\"\n"},
		{"unknown role", "users:\n  - email: a@b.c\n    roles: [Root]\n"},
		{"unknown field", "products:\n  - name: X\n    cost: \"1\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	fx, err := Decode(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, fx.Products)
}

func TestApply_SkipsExisting(t *testing.T) {
	fx, err := Decode(strings.NewReader(sampleFixtures))
	require.NoError(t, err)

	var created []string
	users := &mockRegistrar{
		RegisterFunc: func(ctx context.Context, req dto.RegisterRequest, roles ...string) (*domain.User, error) {
			assert.Equal(t, []string{domain.RoleAdmin, domain.RoleUser}, roles)
			return nil, errors.NewConflictError("A user with email 'admin@minierp.local' already exists")
		},
	}
	customers := &mockCustomerStore{
		CreateFunc: func(ctx context.Context, c *domain.Customer) error {
			assert.False(t, c.CreatedAt.IsZero())
			created = append(created, c.Email)
			return nil
		},
	}
	products := &mockProductStore{
		FindAllFunc: func(ctx context.Context) ([]domain.Product, error) {
			return []domain.Product{{ID: 1, Name: "Gadget"}}, nil
		},
		CreateFunc: func(ctx context.Context, p *domain.Product) error {
			created = append(created, p.Name)
			return nil
		},
	}

	res, err := NewSeeder(users, customers, products, zap.NewNop()).Apply(context.Background(), fx)

	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2, Skipped: 2}, res)
	assert.Equal(t, []string{"john@example.com", "Widget"}, created)
}

func TestApply_StopsOnUnexpectedError(t *testing.T) {
	fx := &Fixtures{Customers: []CustomerFixture{{FirstName: "A", LastName: "B", Email: "a@b.c"}}}
	customers := &mockCustomerStore{
		CreateFunc: func(ctx context.Context, c *domain.Customer) error {
			return fmt.Errorf("connection reset")
		},
	}

	_, err := NewSeeder(&mockRegistrar{}, customers, &mockProductStore{}, zap.NewNop()).Apply(context.Background(), fx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeding customer a@b.c")
}
