package seed

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"go.yaml.in/yaml/v3"

	"minierp/internal/domain"
	"minierp/internal/dto"
)

type Fixtures struct {
	Users     []UserFixture     `yaml:"users"`
	Customers []CustomerFixture `yaml:"customers"`
	Products  []ProductFixture  `yaml:"products"`
}

type UserFixture struct {
	Email     string   `yaml:"email"`
	Password  string   `yaml:"password"`
	FirstName string   `yaml:"firstName"`
	LastName  string   `yaml:"lastName"`
	Roles     []string `yaml:"roles"`
}

type CustomerFixture struct {
	FirstName string  `yaml:"firstName"`
	LastName  string  `yaml:"lastName"`
	Email     string  `yaml:"email"`
	Phone     *string `yaml:"phone"`
	Address   *string `yaml:"address"`
}

// ProductFixture keeps the price as text so YAML floats never round it.
type ProductFixture struct {
	Name          string  `yaml:"name"`
	Description   *string `yaml:"description"`
	Price         string  `yaml:"price"`
	StockQuantity int     `yaml:"stockQuantity"`
	SKU           *string `yaml:"sku"`
}

func LoadFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixtures: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}

	for i, p := range fx.Products {
		if _, err := p.price(); err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i, p.Name, err)
		}
	}
	for i, u := range fx.Users {
		for _, role := range u.Roles {
			if role != domain.RoleAdmin && role != domain.RoleUser {
				return nil, fmt.Errorf("user %d (%s): unknown role %q", i, u.Email, role)
			}
		}
	}
	return &fx, nil
}

func (p ProductFixture) price() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", p.Price, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price must be positive, got %s", p.Price)
	}
	return price.Round(2), nil
}

func (p ProductFixture) toDomain() domain.Product {
	price, _ := p.price()
	return domain.Product{
		Name:          p.Name,
		Description:   p.Description,
		Price:         price,
		StockQuantity: p.StockQuantity,
		SKU:           p.SKU,
	}
}

func (c CustomerFixture) toDomain() domain.Customer {
	return domain.Customer{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
	}
}

func (u UserFixture) toRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:     u.Email,
		Password:  u.Password,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
